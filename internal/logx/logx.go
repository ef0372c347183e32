// Пакет logx — key-value хелперы поверх стандартного log.Logger.
package logx

import (
	"fmt"
	"log"
	"strings"
)

func Info(l *log.Logger, opID, op, msg string, kv ...any) {
	l.Printf("lvl=info op_id=%s op=%s msg=%q%s", opID, op, msg, pairs(kv))
}

func Error(l *log.Logger, opID, op, msg string, err error, kv ...any) {
	l.Printf("lvl=error op_id=%s op=%s msg=%q err=%q%s", opID, op, msg, errText(err), pairs(kv))
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// pairs собирает хвост "k=v" из чередующихся ключей и значений.
func pairs(kv []any) string {
	if len(kv) == 0 {
		return ""
	}
	var sb strings.Builder
	for i := 0; i+1 < len(kv); i += 2 {
		sb.WriteString(fmt.Sprintf(" %v=%v", kv[i], kv[i+1]))
	}
	if len(kv)%2 != 0 {
		sb.WriteString(fmt.Sprintf(" %v=?", kv[len(kv)-1]))
	}
	return sb.String()
}
