package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/radieske/bet-ledger/internal/ledger/dto"
	"github.com/radieske/bet-ledger/internal/ledger/model"
)

// APIFunc é um handler que devolve erro em vez de escrever a falha
type APIFunc func(w http.ResponseWriter, r *http.Request) error

// handle traduz a taxonomia de erros do model para status HTTP.
// Erros de armazenamento viram 500 com mensagem genérica e vão para o log.
func (s *Server) handle(h APIFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := h(w, r)
		if err == nil {
			return
		}

		status, msg := translate(err)
		if status >= http.StatusInternalServerError {
			s.log.Error("HTTP API error", zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
		} else {
			s.log.Debug("request rejected", zap.String("path", r.URL.Path), zap.Int("status", status), zap.Error(err))
		}
		writeJSON(w, status, dto.ErrorResponse{Error: msg})
	}
}

func translate(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, model.ErrConflict):
		return http.StatusConflict, err.Error()
	case errors.Is(err, model.ErrForbidden):
		return http.StatusForbidden, "bet belongs to another user"
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound, err.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// decode lê o corpo JSON; JSON inválido é erro de validação
func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return model.Invalid("", "invalid JSON body")
	}
	return nil
}

// required lê um parâmetro de query obrigatório
func required(r *http.Request, name string) (string, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return "", model.Invalid(name, "is required")
	}
	return v, nil
}
