package generation

import (
	"errors"

	"fusion-recipes/internal/core/ai"
	"fusion-recipes/internal/core/recipe"
	"fusion-recipes/internal/pkg/common"
)

// HTTPError 將管線錯誤對應到對外錯誤
func HTTPError(err error) *common.CustomError {
	var (
		vErr     *recipe.ValidationError
		authErr  *ai.AuthConfigError
		parseErr *recipe.ParseError
	)
	switch {
	case errors.As(err, &vErr):
		return common.ErrInvalidPreferences.Wrap(err).WithMessage(vErr.Message())
	case errors.Is(err, ErrGenerationInProgress):
		return common.ErrGenerationInProgress.Wrap(err)
	case errors.As(err, &authErr):
		return common.ErrGenerationNotConfigured.Wrap(err)
	case ai.IsGenerationError(err), errors.As(err, &parseErr):
		return common.ErrGenerationFailed.Wrap(err)
	}
	return common.ErrInternalError.Wrap(err).WithMessage(common.ErrGenerationFailed.Message)
}

// UserMessage 給使用者看的錯誤訊息
func UserMessage(err error) string {
	return HTTPError(err).Message
}
