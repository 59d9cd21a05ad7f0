package postservice

import (
	"strings"

	"github.com/MDA04systack/devlog/internal/common"
)

func validateEditorial(v *common.Validator, title, content string) {
	v.Check(strings.TrimSpace(title) != "" || strings.TrimSpace(content) != "", "title", "title and content cannot both be empty")
	v.Check(v.CheckStringLength(title, 0, 200), "title", "must not be more than 200 characters long")
}

func validateStatus(v *common.Validator, status Status) {
	v.Check(v.CheckPermittedValue(string(status), string(StatusDraft), string(StatusPublished), string(StatusPrivate)), "status", "must be one of draft, published or private")
}

func validateSort(v *common.Validator, sort Sort) {
	v.Check(v.CheckPermittedValue(string(sort), string(SortLatest), string(SortOldest), string(SortPopular)), "sort", "must be one of latest, oldest or popular")
}

func validateInt(v *common.Validator, num int, name string) {
	v.Check(num > 0, name, "must be greater than zero")
}
