package inkpress

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"
	"github.com/labstack/echo/v4"

	"github.com/eringen/inkpress/content"
)

const commentFailureMessage = "Couldn't submit comment"

type commentSubmitted struct {
	Name string `json:"name"`
}

type commentFailure struct {
	Message string `json:"message"`
	Error   any    `json:"error"`
}

func failure(err any) commentFailure {
	return commentFailure{Message: commentFailureMessage, Error: err}
}

// handleCreateComment accepts a JSON submission {_id, name, email, comment}
// and creates an unapproved comment for the post. The body is parsed as
// JSON regardless of the declared content type.
func (a *App) handleCreateComment(c echo.Context) error {
	if a.limiter != nil && !a.limiter.Allow(c.RealIP()) {
		return c.JSON(http.StatusTooManyRequests, failure("too many submissions, try again later"))
	}

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		if isTooLarge(err) {
			return err
		}
		return c.JSON(http.StatusBadRequest, failure(err.Error()))
	}
	sub, err := decodeSubmission(body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, failure(err.Error()))
	}

	if a.Config.ValidateComments {
		if err := a.validate.Struct(sub); err != nil {
			return c.JSON(http.StatusBadRequest, failure(validationDetail(err)))
		}
	}

	id, err := a.Source.CreateComment(c.Request().Context(), sub)
	if err != nil {
		c.Logger().Errorf("create comment for post %q: %v", sub.PostID, err)
		return c.JSON(http.StatusInternalServerError, failure(err.Error()))
	}

	c.Logger().Infof("comment %s submitted for post %s", id, sub.PostID)
	return c.JSON(http.StatusOK, commentSubmitted{Name: "Comment Submitted"})
}

var errNotObject = errors.New("request body must be a JSON object")

func decodeSubmission(body []byte) (content.NewComment, error) {
	var sub content.NewComment
	if !bytes.HasPrefix(bytes.TrimSpace(body), []byte("{")) {
		return sub, errNotObject
	}
	if err := json.Unmarshal(body, &sub); err != nil {
		return sub, err
	}
	return sub, nil
}

// validationDetail maps field errors to {field: tag}, keyed by JSON name.
func validationDetail(err error) any {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	return fields
}

// newValidator reports field errors under their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
