package api

import (
	"errors"

	"github.com/okian/boardsync/internal/domain/model"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
	ErrNotFound   = model.ErrNotFound
)
