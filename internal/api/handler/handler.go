package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/Dafoe17/retail-platform-backend/internal/api"
	"github.com/Dafoe17/retail-platform-backend/internal/api/dto"
	"github.com/Dafoe17/retail-platform-backend/internal/domain/model"
	"github.com/Dafoe17/retail-platform-backend/internal/pkg/apperr"
	"github.com/Dafoe17/retail-platform-backend/internal/pkg/util"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

/*
decodeJSON 解析 body 並驗證 validate tag.
失敗時已寫出回應, 呼叫端只需 return.
*/
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		api.ValidationJSON(w, "malformed request body", map[string]string{"body": err.Error()})
		return false
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				fields[fieldPath(fe.Namespace())] = fe.Tag()
			}
			api.ValidationJSON(w, "request validation failed", fields)
			return false
		}
		api.ErrorJSON(w, r, err)
		return false
	}
	return true
}

// "ProductDTO.images[0]" -> "images[0]"
func fieldPath(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.ErrValidation.WithMessage("invalid %s %q", name, raw)
	}
	return id, nil
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.ErrValidation.WithMessage("invalid %s %q", name, raw)
	}
	return n, nil
}

func queryBool(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, apperr.ErrValidation.WithMessage("invalid %s %q", name, raw)
	}
	return b, nil
}

func queryMoney(r *http.Request, name string) (*int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, apperr.ErrValidation.WithMessage("invalid %s %q", name, raw)
	}
	minor, err := util.DecimalToMinor(d)
	if err != nil {
		return nil, apperr.ErrValidation.WithMessage("%s: %v", name, err)
	}
	return &minor, nil
}

func moneyToMinor(field string, d decimal.Decimal) (int64, error) {
	minor, err := util.DecimalToMinor(d)
	if err != nil {
		return 0, apperr.ErrValidation.WithMessage("%s: %v", field, err)
	}
	return minor, nil
}

// requireIdentity 由 RequireAuth 保證存在, 缺少時視為未登入
func requireIdentity(r *http.Request) (model.Identity, error) {
	id := util.GetIdentityFromContext(r.Context())
	if id == nil {
		return model.Identity{}, apperr.ErrUnauthenticated
	}
	return *id, nil
}

func pageOf[T, R any](p *model.Page[T], conv func(*T) R) dto.PageResponse[R] {
	items := make([]R, 0, len(p.Items))
	for i := range p.Items {
		items = append(items, conv(&p.Items[i]))
	}
	return dto.PageResponse[R]{
		Items:      items,
		Total:      p.Total,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: p.TotalPages(),
	}
}

func NotFound(w http.ResponseWriter, r *http.Request) {
	api.ErrorJSON(w, r, apperr.New(apperr.KindNotFound, "route_not_found", fmt.Sprintf("no route for %s %s", r.Method, r.URL.Path)))
}
