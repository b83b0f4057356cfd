package validator

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	minPictureBytes = 1

	errPictureEmptyFmt       = "picture cannot be empty"
	errPictureTooLargeFmt    = "picture must not exceed %d bytes"
	errPictureContentTypeFmt = "picture must be a JPG, JPEG or PNG image"
	errFieldFmt              = "%s failed on the '%s' rule"
)

var allowedPictureTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// RequestValidator adapts go-playground/validator to echo.Validator.
type RequestValidator struct {
	validate *validator.Validate
}

func New() *RequestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)
	return &RequestValidator{validate: v}
}

// Validate runs struct tags and flattens failures into one readable error.
func (rv *RequestValidator) Validate(i interface{}) error {
	err := rv.validate.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf(errFieldFmt, fe.Field(), fe.Tag()))
	}
	return errors.New(strings.Join(msgs, "; "))
}

// Picture checks an uploaded image by its sniffed content type and size.
func Picture(data []byte, maxBytes int64) (string, error) {
	if len(data) < minPictureBytes {
		return "", errors.New(errPictureEmptyFmt)
	}

	if int64(len(data)) > maxBytes {
		return "", fmt.Errorf(errPictureTooLargeFmt, maxBytes)
	}

	contentType := http.DetectContentType(data)
	if !allowedPictureTypes[contentType] {
		return "", errors.New(errPictureContentTypeFmt)
	}

	return contentType, nil
}

func jsonFieldName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "query", "form"} {
		name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
		if name != "" && name != "-" {
			return name
		}
	}
	return fld.Name
}
