package observability

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// KafkaLogger adapts zerolog to kafka-go's Logger interface at the given level,
// adding a "component":"kafka-go" field.
func KafkaLogger(logger zerolog.Logger, level zerolog.Level) kafka.LoggerFunc {
	l := logger.With().Str("component", "kafka-go").Logger()
	return func(msg string, args ...interface{}) {
		l.WithLevel(level).Msg(fmt.Sprintf(msg, args...))
	}
}
