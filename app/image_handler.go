package main

import (
	"errors"
	"net/http"

	"github.com/MDA04systack/devlog/internal/imageservice"
)

// uploadImageHandler accepts a multipart form with a single "image" field
// and returns the public URL of the stored object.
func (app *application) uploadImageHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, imageservice.MaxImageSize+4096)

	err := r.ParseMultipartForm(imageservice.MaxImageSize)
	if err != nil {
		app.badRequestErrorResponse(w, r, errors.New("could not parse multipart form"))
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		app.badRequestErrorResponse(w, r, errors.New("missing image field"))
		return
	}
	defer file.Close()

	user := app.getUserContext(r)

	image, err := app.imageService.UploadImage(r.Context(), user.ID, header.Filename, file, header.Size)
	if err != nil {
		switch {
		case errors.Is(err, imageservice.ErrImageTooLarge):
			app.badRequestErrorResponse(w, r, err)
		case errors.Is(err, imageservice.ErrUnsupportedFormat):
			app.failedValidationErrorResponse(w, r, map[string]string{"image": "unsupported image format"})
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusCreated, envelope{"image": image}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}
