package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"storefront/internal/entity"
	"storefront/internal/listing"
	"storefront/internal/service"
)

type AccountHandler struct {
	*Responder
	users     *service.UserService
	addresses *service.AddressService
	reviews   *service.ReviewService
	audit     *service.AuditService
	notes     *service.NotificationService
}

func NewAccountHandler(r *Responder, users *service.UserService, addresses *service.AddressService, reviews *service.ReviewService, audit *service.AuditService, notes *service.NotificationService) *AccountHandler {
	return &AccountHandler{Responder: r, users: users, addresses: addresses, reviews: reviews, audit: audit, notes: notes}
}

func (h *AccountHandler) Profile(c echo.Context) error {
	a := actor(c)
	u, err := h.users.Get(c.Request().Context(), a, a.UserID)
	if err != nil {
		return h.fail(c, "Loading profile failed", err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *AccountHandler) UpdateProfile(c echo.Context) error {
	var u entity.User
	if err := bind(c, &u); err != nil {
		return h.fail(c, "Saving profile failed", err)
	}
	a := actor(c)
	updated, err := h.users.Update(c.Request().Context(), a, a.UserID, u)
	if err != nil {
		return h.fail(c, "Saving profile failed", err)
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *AccountHandler) ListUsers(c echo.Context) error {
	q, err := listQuery(c, listing.UserQuery())
	if err != nil {
		return h.failList(c, "Loading users failed", err)
	}
	list, err := h.users.List(c.Request().Context(), q)
	if err != nil {
		return h.failList(c, "Loading users failed", err)
	}
	return listJSON(c, list)
}

func (h *AccountHandler) GetUser(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, "Loading user failed", err)
	}
	u, err := h.users.Get(c.Request().Context(), actor(c), id)
	if err != nil {
		return h.fail(c, "Loading user failed", err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *AccountHandler) UpdateUser(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, "Saving user failed", err)
	}
	var u entity.User
	if err := bind(c, &u); err != nil {
		return h.fail(c, "Saving user failed", err)
	}
	updated, err := h.users.Update(c.Request().Context(), actor(c), id, u)
	if err != nil {
		return h.fail(c, "Saving user failed", err)
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *AccountHandler) DeleteUser(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, "Delete failed", err)
	}
	if err := h.users.Delete(c.Request().Context(), actor(c), id); err != nil {
		return h.fail(c, "Delete failed", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AccountHandler) ListAddresses(c echo.Context) error {
	list, err := h.addresses.List(c.Request().Context(), actor(c))
	if err != nil {
		return h.failList(c, "Loading addresses failed", err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *AccountHandler) CreateAddress(c echo.Context) error {
	var a entity.Address
	if err := bind(c, &a); err != nil {
		return h.fail(c, "Saving address failed", err)
	}
	list, err := h.addresses.Create(c.Request().Context(), actor(c), a)
	if err != nil {
		return h.fail(c, "Saving address failed", err)
	}
	return c.JSON(http.StatusCreated, list)
}

func (h *AccountHandler) UpdateAddress(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, "Saving address failed", err)
	}
	var a entity.Address
	if err := bind(c, &a); err != nil {
		return h.fail(c, "Saving address failed", err)
	}
	list, err := h.addresses.Update(c.Request().Context(), actor(c), id, a)
	if err != nil {
		return h.fail(c, "Saving address failed", err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *AccountHandler) DeleteAddress(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, "Delete failed", err)
	}
	list, err := h.addresses.Delete(c.Request().Context(), actor(c), id)
	if err != nil {
		return h.fail(c, "Delete failed", err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *AccountHandler) SetDefaultAddress(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, "Default address update failed", err)
	}
	list, err := h.addresses.SetDefault(c.Request().Context(), actor(c), id)
	if err != nil {
		return h.fail(c, "Default address update failed", err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *AccountHandler) MyReviews(c echo.Context) error {
	reviews, err := h.reviews.Mine(c.Request().Context(), actor(c))
	if err != nil {
		return h.failList(c, "Loading reviews failed", err)
	}
	return c.JSON(http.StatusOK, nonNil(reviews))
}

func (h *AccountHandler) AllReviews(c echo.Context) error {
	reviews, err := h.reviews.All(c.Request().Context())
	if err != nil {
		return h.failList(c, "Loading reviews failed", err)
	}
	return c.JSON(http.StatusOK, nonNil(reviews))
}

func (h *AccountHandler) CreateReview(c echo.Context) error {
	var r entity.Review
	if err := bind(c, &r); err != nil {
		return h.fail(c, "Saving review failed", err)
	}
	created, err := h.reviews.Create(c.Request().Context(), actor(c), r)
	if err != nil {
		return h.fail(c, "Saving review failed", err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *AccountHandler) UpdateReview(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, "Saving review failed", err)
	}
	var r entity.Review
	if err := bind(c, &r); err != nil {
		return h.fail(c, "Saving review failed", err)
	}
	updated, err := h.reviews.Update(c.Request().Context(), actor(c), id, r)
	if err != nil {
		return h.fail(c, "Saving review failed", err)
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *AccountHandler) MarkReviewHelpful(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, "Vote failed", err)
	}
	r, err := h.reviews.MarkHelpful(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, "Vote failed", err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *AccountHandler) DeleteReview(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, "Delete failed", err)
	}
	if err := h.reviews.Delete(c.Request().Context(), actor(c), id); err != nil {
		return h.fail(c, "Delete failed", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AccountHandler) ListAuditLogs(c echo.Context) error {
	q, err := listQuery(c, listing.AuditLogQuery())
	if err != nil {
		return h.failList(c, "Loading audit logs failed", err)
	}
	list, err := h.audit.List(c.Request().Context(), q)
	if err != nil {
		return h.failList(c, "Loading audit logs failed", err)
	}
	return listJSON(c, list)
}

func (h *AccountHandler) Notifications(c echo.Context) error {
	list, err := h.notes.Active(c.Request().Context(), actor(c))
	if err != nil {
		// not recorded: the store that would keep it is what failed
		logger.Warn().Err(err).Msg("Error listing notifications")
		return c.JSON(http.StatusOK, []entity.Notification{})
	}
	return c.JSON(http.StatusOK, list)
}

func (h *AccountHandler) DismissNotification(c echo.Context) error {
	if err := h.notes.Dismiss(c.Request().Context(), actor(c), c.Param("id")); err != nil {
		return h.fail(c, "Dismiss failed", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AccountHandler) DismissAllNotifications(c echo.Context) error {
	n, err := h.notes.DismissAll(c.Request().Context(), actor(c))
	if err != nil {
		return h.fail(c, "Dismiss failed", err)
	}
	return c.JSON(http.StatusOK, map[string]int64{"dismissed": n})
}
