package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog"
)

// Recovery turns a handler panic into a 500 error envelope. When the handler
// had already started the response, the panic is only logged.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		defer func() {
			v := recover()
			if v == nil {
				return
			}
			if v == http.ErrAbortHandler {
				panic(v)
			}

			zerolog.Ctx(r.Context()).Error().
				Err(fmt.Errorf("panic: %v", v)).
				Bytes("stack", debug.Stack()).
				Bool("response_started", rec.wroteHeader).
				Msg("handler panicked")

			if !rec.wroteHeader {
				writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
			}
		}()

		next.ServeHTTP(rec, r)
	})
}
