package httpapi

import (
	"github.com/go-chi/chi/v5"
)

// NewRouter mounts all API routes. Owner endpoints require a valid access
// token; the shared-link endpoints accept anonymous callers and pass the
// identity through when one is presented, so guest-bound links can be
// checked against the requester.
func NewRouter(h *Handler, auth *Authenticator) chi.Router {
	r := chi.NewRouter()

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(auth.Require)

			r.Post("/auth/refresh", h.RefreshToken)

			r.Post("/files", h.UploadFile)
			r.Get("/files", h.ListFiles)
			r.Get("/files/{id}", h.GetFile)
			r.Get("/files/{id}/download", h.DownloadFile)
			r.Get("/files/{id}/presign", h.PresignFile)
			r.Delete("/files/{id}", h.DeleteFile)

			r.Post("/files/{id}/share", h.CreateShare)
			r.Get("/files/{id}/shares", h.ListShares)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.Optional)

			r.Get("/shared-file", h.SharedFile)
			r.Get("/shared-file/download", h.SharedFileDownload)

			r.Get("/files/{id}/shared", h.GuestSharedFile)
			r.Get("/files/{id}/shared/download", h.GuestSharedDownload)
		})
	})

	return r
}
