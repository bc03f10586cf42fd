// Package shopclient is the shopper-side store: an API client for the
// storefront backend plus the session, catalog-cache, and cart state the
// browser app kept, persisted locally across runs.
package shopclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Is-Prog22/fastandtrust/internal/catalog"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrUnavailable  = errors.New("backend unavailable")
)

// Client talks to the storefront REST API. The bearer token, when set, rides
// on every request.
type Client struct {
	BaseURL string
	HTTP    *http.Client

	token string
}

func NewClient(baseURL string) *Client {
	if u, err := url.Parse(baseURL); err == nil && u.Scheme != "" && u.Host != "" {
		baseURL = strings.TrimRight(baseURL, "/")
	}
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) SetToken(token string) { c.token = token }
func (c *Client) Token() string         { return c.token }

type LoginResult struct {
	Success bool          `json:"success"`
	Token   string        `json:"token"`
	Role    string        `json:"role"`
	User    *catalog.User `json:"user,omitempty"`
}

// Login hits the visitor login endpoint and adopts the returned token.
func (c *Client) Login(ctx context.Context, email, name string) (LoginResult, error) {
	var out LoginResult
	err := c.doJSON(ctx, http.MethodPost, "/api/login", map[string]string{
		"email": email,
		"name":  name,
	}, &out)
	if err != nil {
		return LoginResult{}, err
	}
	c.token = out.Token
	return out, nil
}

// AdminLogin authenticates against the admin identity. password may be empty
// when the backend has no password configured.
func (c *Client) AdminLogin(ctx context.Context, email, name, password string) (LoginResult, error) {
	body := map[string]string{"email": email, "name": name}
	if password != "" {
		body["password"] = password
	}

	var out LoginResult
	if err := c.doJSON(ctx, http.MethodPost, "/api/admin/login", body, &out); err != nil {
		return LoginResult{}, err
	}
	c.token = out.Token
	return out, nil
}

func (c *Client) Products(ctx context.Context) ([]catalog.Product, error) {
	var out []catalog.Product
	err := c.doJSON(ctx, http.MethodGet, "/api/products", nil, &out)
	return out, err
}

func (c *Client) Categories(ctx context.Context) ([]catalog.Category, error) {
	var out []catalog.Category
	err := c.doJSON(ctx, http.MethodGet, "/api/categories", nil, &out)
	return out, err
}

func (c *Client) Users(ctx context.Context) ([]catalog.User, error) {
	var out []catalog.User
	err := c.doJSON(ctx, http.MethodGet, "/api/users", nil, &out)
	return out, err
}

func (c *Client) CreateCategory(ctx context.Context, name, description string) (catalog.Category, error) {
	var out catalog.Category
	err := c.doJSON(ctx, http.MethodPost, "/api/categories", map[string]string{
		"name":        name,
		"description": description,
	}, &out)
	return out, err
}

func (c *Client) DeleteCategory(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/categories/"+strconv.FormatInt(id, 10), nil, nil)
}

// ProductForm carries the multipart fields for a product create or update.
// Empty strings are omitted, which on update means "keep the stored value".
type ProductForm struct {
	Name         string
	Price        string
	Description  string
	CategoryID   string
	CategoryName string
	ImagePaths   []string
}

func (c *Client) CreateProduct(ctx context.Context, form ProductForm) (catalog.Product, error) {
	var out catalog.Product
	err := c.doMultipart(ctx, http.MethodPost, "/api/products", form, &out)
	return out, err
}

func (c *Client) UpdateProduct(ctx context.Context, id int64, form ProductForm) (catalog.Product, error) {
	var out catalog.Product
	err := c.doMultipart(ctx, http.MethodPut, "/api/products/"+strconv.FormatInt(id, 10), form, &out)
	return out, err
}

func (c *Client) DeleteProduct(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/products/"+strconv.FormatInt(id, 10), nil, nil)
}

func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/users/"+strconv.FormatInt(id, 10), nil, nil)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.send(req, out)
}

func (c *Client) doMultipart(ctx context.Context, method, path string, form ProductForm, out any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fields := map[string]string{
		"name":         form.Name,
		"price":        form.Price,
		"description":  form.Description,
		"categoryId":   form.CategoryID,
		"categoryName": form.CategoryName,
	}
	for k, v := range fields {
		if v == "" {
			continue
		}
		if err := mw.WriteField(k, v); err != nil {
			return err
		}
	}

	for _, p := range form.ImagePaths {
		if err := attachFile(mw, p); err != nil {
			return err
		}
	}
	if err := mw.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return c.send(req, out)
}

func attachFile(mw *multipart.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	part, err := mw.CreateFormFile("images", filepath.Base(path))
	if err != nil {
		return err
	}
	_, err = io.Copy(part, f)
	return err
}

func (c *Client) send(req *http.Request, out any) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return apiError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func apiError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&body)
	msg := body.Error
	if msg == "" {
		msg = resp.Status
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrUnauthorized, msg)
	case http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrForbidden, msg)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, msg)
	default:
		return fmt.Errorf("api error: status=%d %s", resp.StatusCode, msg)
	}
}
