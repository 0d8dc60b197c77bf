// AngelaMos | 2026
// handler.go

package contract

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/atelierloc/backoffice/internal/core"
	"github.com/atelierloc/backoffice/internal/middleware"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/contracts", func(r chi.Router) {
		r.Use(authenticator)

		r.Post("/", h.CreateContract)
		r.Get("/", h.ListContracts)
		r.Get("/{contractID}", h.GetContract)
		r.Put("/{contractID}", h.UpdateTerms)

		r.Post("/{contractID}/pdf", h.GeneratePDF)
		r.Post("/{contractID}/signature-request", h.RequestSignature)
		r.Post("/{contractID}/modify", h.ReturnToDraft)
		r.Post("/{contractID}/signed-copy", h.UploadSignedCopy)
		r.Post("/{contractID}/cancel", h.Cancel)
		r.Post("/{contractID}/disable", h.Disable)
		r.Post("/{contractID}/reactivate", h.Reactivate)
		r.Post("/{contractID}/account/paid", h.MarkAccountPaid)
		r.Post("/{contractID}/caution/paid", h.MarkCautionPaid)
	})

	r.With(authenticator).Get("/permissions", h.GetPermissions)

	// reached by the external signing party holding a sign link; no staff auth
	r.Post("/sign-links/{token}", h.ClientSign)
}

func (h *Handler) CreateContract(w http.ResponseWriter, r *http.Request) {
	var req CreateContractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	rec, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.Created(w, ToContractResponse(rec, viewerRole(r)))
}

func (h *Handler) ListContracts(w http.ResponseWriter, r *http.Request) {
	params := ListContractsParams{
		Page:     parseIntQuery(r, "page", 1),
		PageSize: parseIntQuery(r, "page_size", 20),
		Status:   r.URL.Query().Get("status"),
	}

	if deleted := r.URL.Query().Get("deleted"); deleted != "" {
		v := deleted == "true"
		params.Deleted = &v
	}

	records, total, err := h.service.List(r.Context(), params)
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.Paginated(
		w,
		ToContractResponseList(records, viewerRole(r)),
		params.Page,
		params.PageSize,
		total,
	)
}

func (h *Handler) GetContract(w http.ResponseWriter, r *http.Request) {
	rec, err := h.service.Get(r.Context(), chi.URLParam(r, "contractID"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.OK(w, ToContractResponse(rec, viewerRole(r)))
}

func (h *Handler) UpdateTerms(w http.ResponseWriter, r *http.Request) {
	var req UpdateTermsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	rec, err := h.service.UpdateTerms(
		r.Context(),
		chi.URLParam(r, "contractID"),
		viewerRole(r),
		req,
	)
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.OK(w, ToContractResponse(rec, viewerRole(r)))
}

func (h *Handler) GeneratePDF(w http.ResponseWriter, r *http.Request) {
	h.runTransition(w, r, h.service.GeneratePDF)
}

func (h *Handler) RequestSignature(w http.ResponseWriter, r *http.Request) {
	role := viewerRole(r)

	rec, link, err := h.service.RequestSignature(
		r.Context(),
		chi.URLParam(r, "contractID"),
		role,
	)
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.OK(w, SignLinkResponse{
		Contract: ToContractResponse(rec, role),
		SignLink: link,
	})
}

func (h *Handler) ReturnToDraft(w http.ResponseWriter, r *http.Request) {
	h.runTransition(w, r, h.service.ReturnToDraft)
}

func (h *Handler) UploadSignedCopy(w http.ResponseWriter, r *http.Request) {
	var req UploadSignedCopyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	role := viewerRole(r)
	rec, err := h.service.UploadSignedCopy(
		r.Context(),
		chi.URLParam(r, "contractID"),
		role,
		req.DocumentURL,
	)
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.OK(w, ToContractResponse(rec, role))
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.runTransition(w, r, h.service.Cancel)
}

func (h *Handler) Disable(w http.ResponseWriter, r *http.Request) {
	role := viewerRole(r)
	rec, err := h.service.Disable(
		r.Context(),
		chi.URLParam(r, "contractID"),
		role,
		middleware.GetActorID(r.Context()),
	)
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.OK(w, ToContractResponse(rec, role))
}

func (h *Handler) Reactivate(w http.ResponseWriter, r *http.Request) {
	h.runTransition(w, r, h.service.Reactivate)
}

func (h *Handler) MarkAccountPaid(w http.ResponseWriter, r *http.Request) {
	h.runTransition(w, r, h.service.MarkAccountPaid)
}

func (h *Handler) MarkCautionPaid(w http.ResponseWriter, r *http.Request) {
	h.runTransition(w, r, h.service.MarkCautionPaid)
}

func (h *Handler) ClientSign(w http.ResponseWriter, r *http.Request) {
	rec, err := h.service.ClientSign(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.OK(w, ToContractResponse(rec, RoleUser))
}

// GetPermissions resolves the permission set for arbitrary inputs so the
// UI can disable controls before attempting an action.
func (h *Handler) GetPermissions(w http.ResponseWriter, r *http.Request) {
	role := Role(r.URL.Query().Get("role"))
	if role == "" {
		role = viewerRole(r)
	}
	status := Status(r.URL.Query().Get("status"))
	deleted := r.URL.Query().Get("deleted") == "true"

	core.OK(w, h.service.Permissions(role, status, deleted))
}

func (h *Handler) runTransition(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, id string, role Role) (*Record, error),
) {
	role := viewerRole(r)

	rec, err := op(r.Context(), chi.URLParam(r, "contractID"), role)
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.OK(w, ToContractResponse(rec, role))
}

// writeError maps domain refusals onto the HTTP error envelope: permission
// rejections are 403, impossible transitions and spent tokens are 409.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var rejection *Rejection
	if errors.As(err, &rejection) {
		appErr := core.ForbiddenError(rejection.Error())
		if rejection.Kind != RejectionDenied {
			appErr = core.ConflictError(rejection.Error())
		}
		core.JSONError(w, appErr.WithDetails(rejection))
		return
	}

	if errors.Is(err, core.ErrNotFound) {
		core.NotFound(w, "contract")
		return
	}

	core.InternalServerError(w, err)
}

func viewerRole(r *http.Request) Role {
	if role := middleware.GetActorRole(r.Context()); role != "" {
		return Role(role)
	}
	return RoleUser
}

func parseIntQuery(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}

	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return parsed
}
