package catalog

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/EgorLis/my-files/internal/domain"
)

// Политика имён и ключей каталога.
//
// Ключ объекта: uploads/{identityId}/{fileName} — плоское пространство,
// один уровень изоляции по пользователю.

const keyPrefix = "uploads"

// расширения, которые считаем «своими»; чужое распознанное расширение
// при нормализации не трогаем
var recognizedExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".pdf":  true,
}

// NamespacePrefix — префикс листинга для пользователя.
func NamespacePrefix(identityID string) string {
	return keyPrefix + "/" + identityID + "/"
}

// ObjectKey — полный ключ объекта по имени файла.
func ObjectKey(identityID, name string) string {
	return NamespacePrefix(identityID) + name
}

// ClassifyKind выводит тип из имени: суффикс .pdf (без учёта регистра) —
// документ, всё остальное — изображение.
func ClassifyKind(name string) domain.Kind {
	if strings.EqualFold(path.Ext(name), ".pdf") {
		return domain.KindDocument
	}
	return domain.KindImage
}

// GenerateName — имя вида {unixMillis}_{token}.{ext}.
func GenerateName(kind domain.Kind) string {
	return fmt.Sprintf("%d_%s.%s", time.Now().UnixMilli(), randomToken(), kind.CanonicalExt())
}

// EnsureExt дополняет имя каноническим расширением типа, если распознанного
// расширения нет. Уже распознанное чужое расширение не исправляем.
func EnsureExt(name string, kind domain.Kind) string {
	if recognizedExts[strings.ToLower(path.Ext(name))] {
		return name
	}
	return name + "." + kind.CanonicalExt()
}

// ContentTypeFor — MIME по итоговому имени, с фолбэком на тип записи.
func ContentTypeFor(name string, kind domain.Kind) string {
	if ct := mime.TypeByExtension(strings.ToLower(path.Ext(name))); ct != "" {
		return ct
	}
	if kind == domain.KindDocument {
		return "application/pdf"
	}
	return "image/jpeg"
}

func randomToken() string {
	var b [3]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
