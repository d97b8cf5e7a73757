package httpHandler

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"users-service/entities"
	"users-service/metrics"
	"users-service/repositories"
	"users-service/usecases"

	"github.com/gin-gonic/gin"
)

type UsersHandler struct {
	useCase *usecases.UsersUseCase
	metrics *metrics.Metrics
}

func NewUsersHandler(useCase *usecases.UsersUseCase, m *metrics.Metrics) *UsersHandler {
	return &UsersHandler{
		useCase: useCase,
		metrics: m,
	}
}

// Ping handles GET /users/ping
func (h *UsersHandler) Ping(c *gin.Context) {
	success(c, http.StatusOK, "message", "pong!")
}

// AddUser handles POST /users
func (h *UsersHandler) AddUser(c *gin.Context) {
	var in usecases.NewUserInput

	if err := c.ShouldBindJSON(&in); err != nil {
		log.Printf("rejecting create request: %v", err)
		fail(c, http.StatusBadRequest, msgInvalidPayload)
		return
	}

	res, err := h.useCase.AddUser(c.Request.Context(), in)
	if err != nil {
		if errors.Is(err, usecases.ErrInvalidPayload) {
			log.Printf("rejecting create request: %v", err)
			fail(c, http.StatusBadRequest, msgInvalidPayload)
			return
		}
		log.Printf("error creating user: %v", err)
		fail(c, http.StatusInternalServerError, msgSomethingWentWrong)
		return
	}
	h.recordOutcome(res.Outcome)

	switch res.Outcome {
	case repositories.Created:
		success(c, http.StatusCreated, "message", fmt.Sprintf("%s was added!", res.User.Email))
	case repositories.DuplicateEmail:
		fail(c, http.StatusBadRequest, msgEmailExists)
	case repositories.DuplicateUsername:
		fail(c, http.StatusBadRequest, msgUsernameExists)
	default:
		fail(c, http.StatusInternalServerError, msgSomethingWentWrong)
	}
}

// GetSingleUser handles GET /users/:id
func (h *UsersHandler) GetSingleUser(c *gin.Context) {
	user, err := h.useCase.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, usecases.ErrUserNotFound) {
			fail(c, http.StatusNotFound, msgUserDoesNotExist)
			return
		}
		log.Printf("error fetching user %q: %v", c.Param("id"), err)
		fail(c, http.StatusInternalServerError, msgSomethingWentWrong)
		return
	}

	success(c, http.StatusOK, "data", user.ToJSON())
}

// GetAllUsers handles GET /users
func (h *UsersHandler) GetAllUsers(c *gin.Context) {
	users, err := h.useCase.GetAllUsers(c.Request.Context())
	if err != nil {
		log.Printf("error listing users: %v", err)
		fail(c, http.StatusInternalServerError, msgSomethingWentWrong)
		return
	}

	success(c, http.StatusOK, "data", gin.H{
		"users": entities.ToJSONList(users),
	})
}

func (h *UsersHandler) recordOutcome(o repositories.CreateOutcome) {
	if h.metrics != nil {
		h.metrics.UsersCreated.WithLabelValues(o.String()).Inc()
	}
}
