package handler

import (
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	maxMultipartMemory = 8 << 20
	maxUploadBody      = 4*5<<20 + 1<<20
)

// imageFields are the multipart file fields accepted on product creation.
var imageFields = []string{"image1", "image2", "image3", "image4"}

// ProductHandler handles product-related HTTP requests.
type ProductHandler struct {
	service service.ProductService
	logger  zerolog.Logger
}

// NewProductHandler creates a new product handler.
func NewProductHandler(service service.ProductService, logger zerolog.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		logger:  logger.With().Str("handler", "product").Logger(),
	}
}

// Create handles POST /product/create. It accepts either a JSON body with
// image URLs or a multipart form carrying up to four image files.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.ProductRequest

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
		if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
			writeBadBody(w)
			return
		}
		defer r.MultipartForm.RemoveAll()

		if err := productFromForm(r.MultipartForm, &req); err != nil {
			writeError(w, r, err, h.logger)
			return
		}

		urls, err := h.uploadFormImages(r)
		if err != nil {
			writeError(w, r, err, h.logger)
			return
		}
		req.Images = urls
	} else if !decodeJSON(w, r, &req) {
		return
	}

	product, err := h.service.Create(r.Context(), &req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, envelope{"message": "Product added", "product": product})
}

func (h *ProductHandler) uploadFormImages(r *http.Request) ([]string, error) {
	var headers []*multipart.FileHeader
	for _, field := range imageFields {
		headers = append(headers, r.MultipartForm.File[field]...)
	}
	if len(headers) == 0 {
		return nil, nil
	}

	files := make([]service.ImageFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open upload %s: %w", fh.Filename, err)
		}
		defer f.Close()
		files = append(files, service.ImageFile{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Body:        f,
		})
	}
	return h.service.UploadImages(r.Context(), files)
}

// productFromForm fills the scalar product fields from a multipart form.
// Sizes may be a JSON array or a comma-separated list.
func productFromForm(form *multipart.Form, req *model.ProductRequest) error {
	get := func(key string) string {
		if v := form.Value[key]; len(v) > 0 {
			return strings.TrimSpace(v[0])
		}
		return ""
	}

	req.Name = get("name")
	req.Description = get("description")
	req.Category = get("category")
	req.Subcategory = get("subCategory")
	if req.Subcategory == "" {
		req.Subcategory = get("subcategory")
	}

	if raw := get("price"); raw != "" {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			return model.NewValidationError("price must be a number")
		}
		req.Price = price
	}

	if raw := get("bestseller"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return model.NewValidationError("bestseller must be true or false")
		}
		req.Bestseller = b
	}

	if raw := get("sizes"); raw != "" {
		if strings.HasPrefix(raw, "[") {
			if err := json.Unmarshal([]byte(raw), &req.Sizes); err != nil {
				return model.NewValidationError("sizes must be a list")
			}
		} else {
			for _, s := range strings.Split(raw, ",") {
				if s = strings.TrimSpace(s); s != "" {
					req.Sizes = append(req.Sizes, s)
				}
			}
		}
	}
	return nil
}

// GetAll handles GET /product.
func (h *ProductHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.GetAll(r.Context())
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, envelope{"message": "Products fetched successfully", "products": products})
}

// Filter handles GET /product/filter?category=&subcategory=&search=&sort=.
func (h *ProductHandler) Filter(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := model.ProductFilter{
		Category:    q.Get("category"),
		Subcategory: q.Get("subcategory"),
		Search:      q.Get("search"),
		Sort:        q.Get("sort"),
	}

	products, err := h.service.Filter(r.Context(), f)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, envelope{"message": "Products fetched successfully", "products": products})
}

// GetByID handles GET /product/{id}.
func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, envelope{"message": "Product fetched successfully", "product": product})
}

// Update handles PUT /product/update/{id}.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	var upd model.ProductUpdate
	if !decodeJSON(w, r, &upd) {
		return
	}

	product, err := h.service.Update(r.Context(), r.PathValue("id"), &upd)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, envelope{"message": "Product updated", "product": product})
}

// Delete handles DELETE /product/delete/{id}.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, envelope{"message": "Product removed"})
}
