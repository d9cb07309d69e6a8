package controller

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	authDto "kursusku_backend/internals/features/users/auth/dto"
	"kursusku_backend/internals/features/users/user/dto"
	"kursusku_backend/internals/features/users/user/model"
	svc "kursusku_backend/internals/features/users/user/service"
	helper "kursusku_backend/internals/helpers"
	"kursusku_backend/internals/helpers/apperror"
	authMw "kursusku_backend/internals/middlewares/auth"
)

type UserController struct {
	Service *svc.UserService
}

func NewUserController(s *svc.UserService) *UserController {
	return &UserController{Service: s}
}

func userIDParam(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Params("id")))
	if err != nil {
		return uuid.Nil, apperror.ValidationMsg("id", "user id tidak valid")
	}
	return id, nil
}

func toResponses(users []model.UserModel) []authDto.UserResponse {
	out := make([]authDto.UserResponse, 0, len(users))
	for i := range users {
		out = append(out, authDto.FromUser(&users[i]))
	}
	return out
}

// PATCH /api/u/users/me
func (uc *UserController) UpdateMe(c *fiber.Ctx) error {
	userID, err := authMw.GetUserID(c)
	if err != nil {
		return err
	}
	var req dto.UpdateProfileRequest
	if err := helper.BindAndValidate(c, &req); err != nil {
		return err
	}
	u, err := uc.Service.UpdateProfile(c.UserContext(), userID, req)
	if err != nil {
		return err
	}
	return helper.JsonUpdated(c, "Profil diperbarui", authDto.FromUser(u))
}

// GET /api/a/users?q=&role=&is_active=&page=&per_page=
func (uc *UserController) List(c *fiber.Ctx) error {
	f := dto.ListUsersQuery{
		Q:    c.Query("q"),
		Role: strings.TrimSpace(c.Query("role")),
	}
	if raw := strings.TrimSpace(c.Query("is_active")); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return apperror.ValidationMsg("is_active", "harus true/false")
		}
		f.IsActive = &b
	}
	pg := helper.ResolvePaging(c, 20, 100)
	rows, total, err := uc.Service.List(c.UserContext(), f, pg.Offset, pg.Limit)
	if err != nil {
		return err
	}
	return helper.JsonList(c, "ok", toResponses(rows), helper.BuildPaginationFromPage(total, pg.Page, pg.PerPage))
}

// GET /api/a/users/:id
func (uc *UserController) Get(c *fiber.Ctx) error {
	id, err := userIDParam(c)
	if err != nil {
		return err
	}
	u, err := uc.Service.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return helper.JsonOK(c, "ok", authDto.FromUser(u))
}

// PATCH /api/a/users/:id/role
func (uc *UserController) UpdateRole(c *fiber.Ctx) error {
	actorID, err := authMw.GetUserID(c)
	if err != nil {
		return err
	}
	id, err := userIDParam(c)
	if err != nil {
		return err
	}
	var req dto.UpdateRoleRequest
	if err := helper.BindAndValidate(c, &req); err != nil {
		return err
	}
	u, err := uc.Service.SetRole(c.UserContext(), actorID, id, req.Role)
	if err != nil {
		return err
	}
	return helper.JsonUpdated(c, "Role user diperbarui", authDto.FromUser(u))
}

// PATCH /api/a/users/:id/active
func (uc *UserController) UpdateActive(c *fiber.Ctx) error {
	actorID, err := authMw.GetUserID(c)
	if err != nil {
		return err
	}
	id, err := userIDParam(c)
	if err != nil {
		return err
	}
	var req dto.UpdateActiveRequest
	if err := helper.BindAndValidate(c, &req); err != nil {
		return err
	}
	u, err := uc.Service.SetActive(c.UserContext(), actorID, id, *req.IsActive)
	if err != nil {
		return err
	}
	return helper.JsonUpdated(c, "Status user diperbarui", authDto.FromUser(u))
}
