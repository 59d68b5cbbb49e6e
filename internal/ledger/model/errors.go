package model

import (
	"errors"
	"fmt"
)

// Taxonomia de erros. Repositórios embrulham com %w; o HTTP traduz com errors.Is.
var (
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
)

// ValidationError descreve o campo inválido com mensagem legível
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalid cria um ValidationError para o campo
func Invalid(field, msg string) error {
	return &ValidationError{Field: field, Msg: msg}
}
