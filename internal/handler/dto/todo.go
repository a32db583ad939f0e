package dto

import (
	"time"

	"github.com/taskdeck/taskdeck/internal/model"
)

// CreateTodoRequest represents the request body for creating a todo.
type CreateTodoRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// UpdateTodoRequest represents the request body for updating a todo.
// Omitted fields are left unchanged.
type UpdateTodoRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	IsDone      *bool   `json:"is_done,omitempty"`
}

// TodoResponse represents a todo in API responses.
type TodoResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	IsDone      bool      `json:"is_done"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TodoWithOwnerResponse embeds the owning user in a todo detail view.
type TodoWithOwnerResponse struct {
	TodoResponse
	Owner UserResponse `json:"owner"`
}

// ToTodoResponse converts a Todo model to TodoResponse DTO.
func ToTodoResponse(todo *model.Todo) *TodoResponse {
	return &TodoResponse{
		ID:          todo.ID,
		Title:       todo.Title,
		Description: todo.Description,
		IsDone:      todo.IsDone,
		CreatedAt:   todo.CreatedAt,
		UpdatedAt:   todo.UpdatedAt,
	}
}

// ToTodoListResponse converts a slice of Todo models.
func ToTodoListResponse(todos []*model.Todo) []TodoResponse {
	responses := make([]TodoResponse, len(todos))
	for i, todo := range todos {
		responses[i] = *ToTodoResponse(todo)
	}
	return responses
}

// ToTodoWithOwnerResponse converts a todo and its owner.
func ToTodoWithOwnerResponse(todo *model.Todo, owner *model.User) *TodoWithOwnerResponse {
	return &TodoWithOwnerResponse{
		TodoResponse: *ToTodoResponse(todo),
		Owner:        *ToUserResponse(owner),
	}
}
