// Package idgen генерирует идентификаторы двух видов: внутренний ключ строки
// (с меткой времени) и публичный короткий код (полностью случайный).
package idgen

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"io"
	"time"
)

const (
	internalIDSize = 8
	timestampSize  = 6
	publicCodeSize = 12
)

// Generator источник идентификаторов. Нулевое значение использует
// crypto/rand и системные часы.
type Generator struct {
	Rand io.Reader
	Now  func() time.Time
}

var publicCodeLen = base64.RawURLEncoding.EncodedLen(publicCodeSize)

var defaultGenerator = &Generator{}

// NewInternalID 8 случайных байт, младшие 6 из которых заменены на
// миллисекундную метку времени (big-endian). Старшие 2 байта остаются случайными.
func NewInternalID() string {
	return defaultGenerator.NewInternalID()
}

// NewPublicCode 12 случайных байт без метки времени.
func NewPublicCode() string {
	return defaultGenerator.NewPublicCode()
}

func (g *Generator) NewInternalID() string {
	buf := make([]byte, internalIDSize)
	g.fill(buf)

	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(g.now().UnixMilli()))
	copy(buf[internalIDSize-timestampSize:], ts[8-timestampSize:])

	return base64.RawURLEncoding.EncodeToString(buf)
}

func (g *Generator) NewPublicCode() string {
	buf := make([]byte, publicCodeSize)
	g.fill(buf)
	return base64.RawURLEncoding.EncodeToString(buf)
}

// ValidCode сообщает, может ли строка быть публичным кодом: непустая,
// не длиннее сгенерированного кода и только из алфавита base64url.
func ValidCode(code string) bool {
	if code == "" || len(code) > publicCodeLen {
		return false
	}
	for i := 0; i < len(code); i++ {
		c := code[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}

// Timestamp извлекает метку времени из внутреннего идентификатора.
func Timestamp(id string) (time.Time, bool) {
	buf, err := base64.RawURLEncoding.DecodeString(id)
	if err != nil || len(buf) != internalIDSize {
		return time.Time{}, false
	}

	var ts [8]byte
	copy(ts[8-timestampSize:], buf[internalIDSize-timestampSize:])
	return time.UnixMilli(int64(binary.BigEndian.Uint64(ts[:]))), true
}

func (g *Generator) fill(buf []byte) {
	r := g.Rand
	if r == nil {
		r = rand.Reader
	}
	// crypto/rand.Reader не возвращает ошибок на поддерживаемых платформах
	if _, err := io.ReadFull(r, buf); err != nil {
		panic("idgen: read random bytes: " + err.Error())
	}
}

func (g *Generator) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}
