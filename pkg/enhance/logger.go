package enhance

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/timelinekit/timeline/internal/utils"
)

// retryLogger routes retryablehttp's messages to the shared logrus logger.
// Everything it says is request plumbing, so it never logs above debug
// except for errors.
type retryLogger struct{}

var _ retryablehttp.LeveledLogger = retryLogger{}

func (retryLogger) Error(msg string, kv ...interface{}) {
	utils.Log.Errorf("[enhance] %s%s", msg, formatKV(kv))
}

func (retryLogger) Info(msg string, kv ...interface{}) {
	utils.Log.Debugf("[enhance] %s%s", msg, formatKV(kv))
}

func (retryLogger) Debug(msg string, kv ...interface{}) {
	utils.Log.Debugf("[enhance] %s%s", msg, formatKV(kv))
}

func (retryLogger) Warn(msg string, kv ...interface{}) {
	utils.Log.Warnf("[enhance] %s%s", msg, formatKV(kv))
}

func formatKV(kv []interface{}) string {
	var b strings.Builder
	for i := 0; i+1 < len(kv); i += 2 {
		fmt.Fprintf(&b, " %v=%v", kv[i], kv[i+1])
	}
	return b.String()
}
