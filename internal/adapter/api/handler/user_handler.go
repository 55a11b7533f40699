package handler

import (
	"github.com/labstack/echo/v4"

	"emprende/internal/usecase"
	"emprende/pkg/errors"
	"emprende/pkg/response"
)

type UserHandler struct {
	userUseCase *usecase.UserUseCase
}

func NewUserHandler(userUseCase *usecase.UserUseCase) *UserHandler {
	return &UserHandler{
		userUseCase: userUseCase,
	}
}

type updateProfileRequest struct {
	UserName string `json:"user_name" validate:"required,max=60"`
}

func (h *UserHandler) GetProfile(c echo.Context) error {
	uid := c.Get("uid").(string)

	user, err := h.userUseCase.GetUserProfile(c.Request().Context(), uid)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, user)
}

func (h *UserHandler) UpdateProfile(c echo.Context) error {
	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	uid := c.Get("uid").(string)

	user, err := h.userUseCase.UpdateProfile(c.Request().Context(), uid, usecase.UpdateProfileInput{
		UserName: req.UserName,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, user)
}

// UploadPhoto accepts the image as "photo", or "image" for older clients.
func (h *UserHandler) UploadPhoto(c echo.Context) error {
	uid := c.Get("uid").(string)

	img, closer, err := imageFromForm(c, "photo")
	if err == nil && img == nil {
		img, closer, err = imageFromForm(c, "image")
	}
	if err != nil {
		return response.Error(c, err)
	}
	if img == nil {
		return response.Error(c, errors.BadRequest("No image provided", nil))
	}
	defer closer.Close()

	user, err := h.userUseCase.UpdatePhoto(c.Request().Context(), uid, img)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, user)
}

func (h *UserHandler) GetUserByID(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return response.Error(c, errors.BadRequest("User ID is required", nil))
	}

	profile, err := h.userUseCase.GetPublicProfile(c.Request().Context(), id)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, profile)
}
