package kafka_config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

func TestLoad_DisabledByDefault(t *testing.T) {
	cfg := Load(newViper())

	assert.False(t, cfg.Enabled())
	assert.Empty(t, cfg.Brokers)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_SplitsBrokers(t *testing.T) {
	v := newViper()
	v.Set(EnvKafkaBrokers, " kafka-1:9092, ,kafka-2:9092 ")

	cfg := Load(v)

	assert.True(t, cfg.Enabled())
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Brokers)
}

func TestValidate_RejectsBadProducerSettings(t *testing.T) {
	v := newViper()
	v.Set(EnvKafkaProducerCompression, "brotli")
	v.Set(EnvKafkaProducerRequireAcks, 2)
	v.Set(EnvKafkaProducerMaxAttempts, 0)

	err := Load(v).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ProducerCompression")
	assert.Contains(t, err.Error(), "ProducerRequireAcks")
	assert.Contains(t, err.Error(), "ProducerMaxAttempts")
}
