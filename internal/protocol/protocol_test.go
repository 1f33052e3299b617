package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/cloudserver/internal/model"
)

func TestParse(t *testing.T) {
	tests := []struct {
		msg  string
		want Command
	}{
		{"end", End{}},
		{"end;whatever", End{}},
		{"get;has account", GetHasAccount{}},
		{"get;data/score", GetData{Name: "score"}},
		{"set;action;create account", SetAction{Action: model.ActionCreateAccount}},
		{"set;action;log in", SetAction{Action: model.ActionLogIn}},
		{"set;action;delete game", SetAction{Action: model.ActionDeleteGame}},
		{"set;password;secret123", SetPassword{Value: "secret123"}},
		{"set;password;a;b", SetPassword{Value: "a;b"}},
		{"set;game;level1", SetGame{GameID: "level1"}},
		{"set;data/score;42", SetData{Name: "score", Value: "42"}},
		{"set;data/pos;1;2;3", SetData{Name: "pos", Value: "1;2;3"}},
		{"set;data/score", SetData{Name: "score", Value: ""}},
		{"delete;data/score", DeleteData{Name: "score"}},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			got, err := Parse(tt.msg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseMalformed(t *testing.T) {
	msgs := []string{
		"",
		"frobnicate;data/x;1",
		"get",
		"get;unknown",
		"get;data/",
		"set",
		"set;action;dance",
		"set;action;",
		"set;colour;blue",
		"set;game",
		"set;game;",
		"set;game;../etc",
		"set;game;played",
		"delete;has account",
		"delete;data/",
		"respond;data/x;1",
		"received",
	}

	for _, msg := range msgs {
		t.Run(msg, func(t *testing.T) {
			cmd, err := Parse(msg)
			assert.ErrorIs(t, err, ErrMalformedCommand)
			assert.Nil(t, cmd)
		})
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "respond;has account;true", Respond{Key: KeyHasAccount, Value: "true"}.Format())
	assert.Equal(t, "respond;data/score;", Respond{Key: DataKey("score")}.Format())
	assert.Equal(t, "received", Ack().Format())
	assert.Equal(t, "received;true", AckBool(true).Format())
	assert.Equal(t, "received;false", AckBool(false).Format())
	assert.Equal(t, "received;", Received{HasValue: true}.Format())
}
