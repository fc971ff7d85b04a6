package utils

import (
	"strings"

	"github.com/google/uuid"
)

// NewID 32 位十六进制 ID（uuid v4 去掉横线），与 varchar(32) 主键对齐
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
