package handler

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"vidhub/internal/apperr"
	"vidhub/internal/transport/http/middleware"
)

var registerTagNames sync.Once

// UseWireFieldNames makes validation errors report json/form names instead of
// Go field names.
func UseWireFieldNames() {
	registerTagNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
				if name != "" && name != "-" {
					return name
				}
			}
			return f.Name
		})
	})
}

// bindError turns a gin binding failure into a validation error with one
// entry per offending field.
func bindError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Validation("invalid request payload")
	}
	details := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, fieldMessage(fe))
	}
	return apperr.Validation("invalid request payload", details...)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_without":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid email"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "nefield":
		return fmt.Sprintf("%s must differ from %s", fe.Field(), fe.Param())
	default:
		return fe.Field() + " is invalid"
	}
}

var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

// UploadConfig controls where multipart images are staged before upload.
type UploadConfig struct {
	Dir      string
	MaxBytes int64
}

// stageImage saves the multipart file under field to the upload dir and
// returns its path. A missing part yields an empty path and no error.
func stageImage(c *gin.Context, cfg UploadConfig, field string) (string, error) {
	file, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return "", nil
	}
	if err != nil {
		return "", apperr.Validation("invalid multipart form", field+" could not be read")
	}
	if cfg.MaxBytes > 0 && file.Size > cfg.MaxBytes {
		return "", apperr.Validation(field+" is too large", fmt.Sprintf("%s must be at most %d bytes", field, cfg.MaxBytes))
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !imageExts[ext] {
		return "", apperr.Validation(field+" must be an image", "allowed types: png, jpg, jpeg, gif, webp")
	}

	if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
		return "", apperr.Upstream("prepare upload dir failed", err)
	}
	dst := filepath.Join(cfg.Dir, uuid.NewString()+ext)
	if err := c.SaveUploadedFile(file, dst); err != nil {
		return "", apperr.Upstream("save uploaded file failed", err)
	}
	return dst, nil
}

func currentUserID(c *gin.Context) (uint, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return 0, false
	}
	return user.ID, true
}

func parseUintParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
