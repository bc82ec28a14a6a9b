package logger

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
)

// RequestIDKey 為gin.Context中request id的key
const RequestIDKey = "requestid"

// UserIDKey 由middleware寫入，值為使用者ID字串
const UserIDKey = "userid"

type ctxKey struct{}

type entry struct {
	TS     string         `json:"ts"`
	Level  string         `json:"level"`
	ReqID  string         `json:"req_id,omitempty"`
	IP     string         `json:"ip,omitempty"`
	Method string         `json:"method,omitempty"`
	Path   string         `json:"path,omitempty"`
	UserID string         `json:"user_id,omitempty"`
	Action string         `json:"action,omitempty"`
	Status int            `json:"status,omitempty"`
	Err    string         `json:"err,omitempty"`
	Fields map[string]any `json:"fields,omitempty"`
}

var std = log.New(os.Stderr, "", 0)

func SetOutput(w io.Writer) {
	std.SetOutput(w)
}

// WithRequestID 讓服務層的log也能帶出request id
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

func write(e entry, err error) {
	e.TS = time.Now().UTC().Format(time.RFC3339)
	if err != nil {
		e.Err = err.Error()
	}
	b, _ := json.Marshal(e)
	std.Println(string(b))
}

func fromGin(level string, c *gin.Context, action string, err error, fields map[string]any) {
	e := entry{Level: level, Action: action, Fields: fields}
	if c != nil {
		e.IP = c.ClientIP()
		e.Method = c.Request.Method
		e.Path = c.Request.URL.Path
		e.Status = c.Writer.Status()
		e.ReqID = c.GetString(RequestIDKey)
		e.UserID = c.GetString(UserIDKey)
	}
	write(e, err)
}

func Info(c *gin.Context, action string, fields map[string]any) {
	fromGin("info", c, action, nil, fields)
}

// Audit 管理者操作與帳號相關異動
func Audit(c *gin.Context, action string, fields map[string]any) {
	fromGin("audit", c, action, nil, fields)
}

// Security 拒絕存取、登入失敗
func Security(c *gin.Context, action string, fields map[string]any) {
	fromGin("warn", c, action, nil, fields)
}

func Error(c *gin.Context, action string, err error, fields map[string]any) {
	fromGin("error", c, action, err, fields)
}

// Event 供沒有gin.Context的元件使用
func Event(ctx context.Context, level, action string, err error, fields map[string]any) {
	write(entry{Level: level, ReqID: RequestID(ctx), Action: action, Fields: fields}, err)
}
