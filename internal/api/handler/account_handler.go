package handler

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/usersmanager/account-service/internal/core/ports"
)

// AccountHandler handles HTTP requests for account operations.
type AccountHandler struct {
	service ports.AccountService
}

func NewAccountHandler(service ports.AccountService) *AccountHandler {
	return &AccountHandler{service: service}
}

// Get handles GET /user?login=.
//
// @Summary      Get an active account by login
// @Tags         accounts
// @Produce      json
// @Security     BasicAuth
// @Param        login  query     string  true  "Account login"
// @Success      200    {object}  accountResponse
// @Failure      400    {object}  errorResponse
// @Failure      401    {object}  errorResponse
// @Failure      404    {object}  errorResponse
// @Router       /user [get]
func (h *AccountHandler) Get(c echo.Context) error {
	login := c.QueryParam("login")
	if strings.TrimSpace(login) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "login is required")
	}

	account, found, err := h.service.GetAccount(c.Request().Context(), login)
	if err != nil {
		return err
	}
	if !found {
		return echo.NewHTTPError(http.StatusNotFound, "account not found")
	}

	return c.JSON(http.StatusOK, toAccountResponse(account))
}

// List handles GET /user/all.
//
// @Summary      List active accounts
// @Description  Without size every active account is returned; with size the
// @Description  page [size*pageIndex, size*(pageIndex+1)) is returned.
// @Tags         accounts
// @Produce      json
// @Security     BasicAuth
// @Param        size       query     int  false  "Page size"
// @Param        pageIndex  query     int  false  "Zero-based page index"
// @Success      200        {array}   accountResponse
// @Failure      400        {object}  errorResponse
// @Failure      401        {object}  errorResponse
// @Router       /user/all [get]
func (h *AccountHandler) List(c echo.Context) error {
	size, err := parseOptionalInt(c.QueryParam("size"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "size must be an integer")
	}
	index, err := parseOptionalInt(c.QueryParam("pageIndex"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "pageIndex must be an integer")
	}

	accounts, err := h.service.ListAccounts(c.Request().Context(), ports.ListAccountsInput{
		PageSize:  size,
		PageIndex: index,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toAccountList(accounts))
}

// Create handles POST /user.
//
// @Summary      Create an account
// @Description  The account is returned once its activation delay has elapsed.
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Security     BasicAuth
// @Param        body  body      createAccountRequest  true  "Account details"
// @Success      201   {object}  accountResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /user [post]
func (h *AccountHandler) Create(c echo.Context) error {
	var req createAccountRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	result, err := h.service.CreateAccount(c.Request().Context(), toCreateInput(req))
	if err != nil {
		return err
	}
	if result.Outcome != ports.OutcomeCreated {
		return result.Err()
	}

	c.Response().Header().Set(echo.HeaderLocation, "/user?login="+url.QueryEscape(result.Account.Login))
	return c.JSON(http.StatusCreated, toAccountResponse(*result.Account))
}

// Delete handles DELETE /user?login=.
//
// @Summary      Block an account
// @Tags         accounts
// @Security     BasicAuth
// @Param        login  query     string  true  "Account login"
// @Success      204
// @Failure      400    {object}  errorResponse
// @Failure      401    {object}  errorResponse
// @Failure      403    {object}  errorResponse
// @Failure      404    {object}  errorResponse
// @Router       /user [delete]
func (h *AccountHandler) Delete(c echo.Context) error {
	login := c.QueryParam("login")
	if strings.TrimSpace(login) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "login is required")
	}

	blocked, err := h.service.DeleteAccount(c.Request().Context(), login)
	if err != nil {
		return err
	}
	if !blocked {
		return echo.NewHTTPError(http.StatusNotFound, "account not found")
	}

	return c.NoContent(http.StatusNoContent)
}
