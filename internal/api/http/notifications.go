package http

import (
	nethttp "net/http"

	"github.com/go-chi/chi/v5"

	"github.com/learnhall/learnhall-lms/internal/course"
	"github.com/learnhall/learnhall-lms/internal/rbac"
)

func ListNotificationsHandler(store course.Store) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		sub := rbac.SubjectFromContext(r.Context())
		notes, err := store.ListNotifications(r.Context(), sub)
		if err != nil {
			writeErr(w, err)
			return
		}
		if notes == nil {
			notes = []course.Notification{} // [] not null
		}
		writeJSON(w, notes)
	}
}

func MarkNotificationReadHandler(store course.Store) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		sub := rbac.SubjectFromContext(r.Context())
		if err := store.MarkNotificationRead(r.Context(), chi.URLParam(r, "notificationID"), sub); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(nethttp.StatusNoContent)
	}
}
