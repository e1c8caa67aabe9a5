package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotificationLimitDefaultsToTwenty(t *testing.T) {
	assert.Equal(t, 20, notificationLimit(0))
	assert.Equal(t, 20, notificationLimit(-5))
	assert.Equal(t, 7, notificationLimit(7))
}
