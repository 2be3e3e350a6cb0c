package reminders

import (
	"testing"

	"studytraka/types"

	"github.com/stretchr/testify/assert"
)

func boolPtr(b bool) *bool { return &b }

func strPtr(s string) *string { return &s }

func TestMerge(t *testing.T) {
	prefs := &types.ReminderPreferences{
		UserID:               "u1",
		EmailEnabled:         true,
		WebPushEnabled:       false,
		DefaultMinutesBefore: 30,
	}

	tests := []struct {
		name     string
		override *types.EventReminderOverride
		want     Effective
	}{
		{
			name:     "no override keeps user defaults",
			override: nil,
			want:     Effective{MinutesBefore: 30, EmailEnabled: true, WebPushEnabled: false},
		},
		{
			name:     "override lead time always wins",
			override: &types.EventReminderOverride{MinutesBefore: 120},
			want:     Effective{MinutesBefore: 120, EmailEnabled: true, WebPushEnabled: false},
		},
		{
			name: "nil channel flags inherit the defaults",
			override: &types.EventReminderOverride{
				MinutesBefore:  10,
				EmailEnabled:   nil,
				WebPushEnabled: nil,
			},
			want: Effective{MinutesBefore: 10, EmailEnabled: true, WebPushEnabled: false},
		},
		{
			name: "explicit false overrides an enabled default",
			override: &types.EventReminderOverride{
				MinutesBefore: 30,
				EmailEnabled:  boolPtr(false),
			},
			want: Effective{MinutesBefore: 30, EmailEnabled: false, WebPushEnabled: false},
		},
		{
			name: "explicit true overrides a disabled default",
			override: &types.EventReminderOverride{
				MinutesBefore:  30,
				WebPushEnabled: boolPtr(true),
			},
			want: Effective{MinutesBefore: 30, EmailEnabled: true, WebPushEnabled: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Merge(prefs, tt.override))
		})
	}
}

func TestMergeEmailOverridePassesThrough(t *testing.T) {
	prefs := &types.ReminderPreferences{
		EmailEnabled:         true,
		DefaultMinutesBefore: 30,
		EmailOverride:        strPtr("other@example.com"),
	}

	eff := Merge(prefs, &types.EventReminderOverride{MinutesBefore: 15})

	assert.NotNil(t, eff.EmailOverride)
	assert.Equal(t, "other@example.com", *eff.EmailOverride)
}

func TestEffectiveEnabled(t *testing.T) {
	assert.False(t, Effective{}.Enabled())
	assert.True(t, Effective{EmailEnabled: true}.Enabled())
	assert.True(t, Effective{WebPushEnabled: true}.Enabled())
}
