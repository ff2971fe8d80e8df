package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Makepad-fr/tada-remote/internal/model"
)

type contentBody struct {
	Content string `json:"content"`
}

func todoPath(id int64) string {
	return "/todos/" + strconv.FormatInt(id, 10)
}

// ListTodos returns the server's list, in server order.
func (c *Client) ListTodos(ctx context.Context, token string) ([]model.Todo, error) {
	var out []model.Todo
	r := c.request(ctx, token).SetResult(&out)
	if _, err := c.do(r, http.MethodGet, "/todos"); err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.Todo{}
	}
	return out, nil
}

// CreateTodo returns the created todo carrying its server-assigned id.
func (c *Client) CreateTodo(ctx context.Context, token, content string) (model.Todo, error) {
	var out model.Todo
	r := c.request(ctx, token).SetBody(contentBody{Content: content}).SetResult(&out)
	if _, err := c.do(r, http.MethodPost, "/todos"); err != nil {
		return model.Todo{}, err
	}
	return out, nil
}

// UpdateTodo replaces the content of a todo. The response body is ignored.
func (c *Client) UpdateTodo(ctx context.Context, token string, id int64, content string) error {
	r := c.request(ctx, token).SetBody(contentBody{Content: content})
	_, err := c.do(r, http.MethodPut, todoPath(id))
	return err
}

func (c *Client) DeleteTodo(ctx context.Context, token string, id int64) error {
	_, err := c.do(c.request(ctx, token), http.MethodDelete, todoPath(id))
	return err
}
