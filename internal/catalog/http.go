package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Is-Prog22/fastandtrust/internal/uploads"
	"github.com/Is-Prog22/fastandtrust/pkg/kit"
)

const (
	maxBodyBytes = 1 << 20

	// maxMultipartMemory bounds the in-memory part of multipart parsing;
	// larger files spill to temp files.
	maxMultipartMemory = 8 << 20
)

type Server struct {
	Store   Store
	Uploads *uploads.Dir
	Log     *zap.Logger
}

// Register mounts the catalog API on r. requireAdmin guards every mutating
// endpoint.
func (s *Server) Register(r chi.Router, requireAdmin func(http.Handler) http.Handler) {
	r.Get("/categories", s.listCategories)
	r.Get("/products", s.listProducts)
	r.Get("/users", s.listUsers)

	r.Group(func(ar chi.Router) {
		ar.Use(requireAdmin)

		ar.Post("/categories", s.createCategory)
		ar.Delete("/categories/{id}", s.deleteCategory)

		ar.Post("/products", s.createProduct)
		ar.Put("/products/{id}", s.updateProduct)
		ar.Delete("/products/{id}", s.deleteProduct)

		ar.Delete("/users/{id}", s.deleteUser)
	})
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.Store.ListCategories(r.Context())
	if err != nil {
		s.storageError(w, r, "list categories", err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, cats)
}

type createCategoryReq struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Server) createCategory(w http.ResponseWriter, r *http.Request) {
	var req createCategoryReq
	if err := decodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, kit.CodeValidation, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	if req.Name == "" || req.Description == "" {
		kit.WriteError(w, r, http.StatusBadRequest, kit.CodeValidation, "Name and description required", nil)
		return
	}

	c, err := s.Store.CreateCategory(r.Context(), req.Name, req.Description)
	if err != nil {
		s.storageError(w, r, "create category", err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, c)
}

func (s *Server) deleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	err := s.Store.DeleteCategory(r.Context(), id)
	if errors.Is(err, ErrCategoryInUse) {
		kit.WriteError(w, r, http.StatusConflict, kit.CodeConflict, "Category still has products", map[string]any{"id": id})
		return
	}
	if err != nil {
		s.storageError(w, r, "delete category", err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.Store.ListProducts(r.Context())
	if err != nil {
		s.storageError(w, r, "list products", err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, products)
}

func (s *Server) createProduct(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, kit.CodeValidation, "bad multipart form", nil)
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	priceRaw := strings.TrimSpace(r.FormValue("price"))
	description := strings.TrimSpace(r.FormValue("description"))
	categoryIDRaw := strings.TrimSpace(r.FormValue("categoryId"))
	categoryName := strings.TrimSpace(r.FormValue("categoryName"))

	if name == "" || priceRaw == "" || description == "" || categoryIDRaw == "" {
		kit.WriteError(w, r, http.StatusBadRequest, kit.CodeValidation, "Missing required fields", nil)
		return
	}

	price, err := strconv.ParseFloat(priceRaw, 64)
	if err != nil || price < 0 {
		kit.WriteError(w, r, http.StatusBadRequest, kit.CodeValidation, "Invalid price", map[string]any{"price": priceRaw})
		return
	}

	categoryID, err := strconv.ParseInt(categoryIDRaw, 10, 64)
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, kit.CodeValidation, "Invalid categoryId", map[string]any{"categoryId": categoryIDRaw})
		return
	}

	files := formFiles(r)
	if len(files) > MaxProductImages {
		kit.WriteError(w, r, http.StatusBadRequest, kit.CodeValidation, "Too many images", map[string]any{"max": MaxProductImages})
		return
	}

	images, err := s.saveImages(files)
	if err != nil {
		s.writeImageError(w, r, err)
		return
	}

	p, err := s.Store.CreateProduct(r.Context(), Product{
		Name:         name,
		Price:        price,
		Description:  description,
		CategoryID:   categoryID,
		CategoryName: categoryName,
		Images:       images,
	})
	if err != nil {
		s.reclaimImages(images)
		s.storageError(w, r, "create product", err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, p)
}

func (s *Server) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, kit.CodeValidation, "bad multipart form", nil)
		return
	}

	patch, err := buildPatch(r)
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, kit.CodeValidation, err.Error(), nil)
		return
	}

	files := formFiles(r)
	if len(files) > MaxProductImages {
		kit.WriteError(w, r, http.StatusBadRequest, kit.CodeValidation, "Too many images", map[string]any{"max": MaxProductImages})
		return
	}

	newImages, err := s.saveImages(files)
	if err != nil {
		s.writeImageError(w, r, err)
		return
	}
	patch.NewImages = newImages

	p, dropped, err := s.Store.UpdateProduct(r.Context(), id, patch)
	if errors.Is(err, ErrNotFound) {
		s.reclaimImages(newImages)
		kit.WriteError(w, r, http.StatusNotFound, kit.CodeNotFound, "Product not found", map[string]any{"id": id})
		return
	}
	if err != nil {
		s.reclaimImages(newImages)
		s.storageError(w, r, "update product", err)
		return
	}

	// Files pushed past the image cap never become visible; reclaim them.
	s.reclaimImages(dropped)

	kit.WriteJSON(w, http.StatusOK, p)
}

func (s *Server) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	images, err := s.Store.DeleteProduct(r.Context(), id)
	if err != nil {
		s.storageError(w, r, "delete product", err)
		return
	}
	s.reclaimImages(images)

	kit.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.Store.ListUsers(r.Context())
	if err != nil {
		s.storageError(w, r, "list users", err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, users)
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := s.Store.DeleteUser(r.Context(), id); err != nil {
		s.storageError(w, r, "delete user", err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

// buildPatch picks up only the fields present in the form, so PUT keeps
// partial-update semantics: absent fields stay as stored.
func buildPatch(r *http.Request) (ProductPatch, error) {
	var patch ProductPatch

	if v, ok := formField(r, "name"); ok {
		patch.Name = &v
	}
	if v, ok := formField(r, "description"); ok {
		patch.Description = &v
	}
	if v, ok := formField(r, "categoryName"); ok {
		patch.CategoryName = &v
	}
	if v, ok := formField(r, "price"); ok {
		price, err := strconv.ParseFloat(v, 64)
		if err != nil || price < 0 {
			return ProductPatch{}, errors.New("Invalid price")
		}
		patch.Price = &price
	}
	if v, ok := formField(r, "categoryId"); ok {
		cid, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return ProductPatch{}, errors.New("Invalid categoryId")
		}
		patch.CategoryID = &cid
	}

	return patch, nil
}

func formField(r *http.Request, key string) (string, bool) {
	if r.MultipartForm == nil {
		return "", false
	}
	vals, ok := r.MultipartForm.Value[key]
	if !ok || len(vals) == 0 {
		return "", false
	}
	v := strings.TrimSpace(vals[0])
	if v == "" {
		return "", false
	}
	return v, true
}

func formFiles(r *http.Request) []*multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	return r.MultipartForm.File["images"]
}

func (s *Server) saveImages(files []*multipart.FileHeader) ([]string, error) {
	saved := make([]string, 0, len(files))
	for _, fh := range files {
		p, err := s.Uploads.Save(fh)
		if err != nil {
			s.reclaimImages(saved)
			return nil, err
		}
		saved = append(saved, p)
	}
	return saved, nil
}

func (s *Server) writeImageError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, uploads.ErrTooLarge) {
		kit.WriteError(w, r, http.StatusBadRequest, kit.CodeValidation, "Image too large", map[string]any{"max_bytes": uploads.MaxFileSize})
		return
	}
	if s.Log != nil {
		s.Log.Error("store image failed", zap.Error(err))
	}
	kit.WriteError(w, r, http.StatusInternalServerError, kit.CodeStorage, "server error", nil)
}

func (s *Server) reclaimImages(paths []string) {
	for _, p := range paths {
		if err := s.Uploads.Remove(p); err != nil && s.Log != nil {
			s.Log.Warn("reclaim image failed", zap.String("path", p), zap.Error(err))
		}
	}
}

func (s *Server) storageError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if isTimeout(err) {
		kit.WriteError(w, r, http.StatusGatewayTimeout, kit.CodeStorage, "timeout", nil)
		return
	}
	if s.Log != nil {
		s.Log.Error(op+" failed", zap.Error(err))
	}
	kit.WriteError(w, r, http.StatusInternalServerError, kit.CodeStorage, "server error", nil)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, kit.CodeValidation, "Invalid id", map[string]any{"id": raw})
		return 0, false
	}
	return id, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer func() { _ = r.Body.Close() }()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("extra data after json object")
	}
	return nil
}

func isTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}
