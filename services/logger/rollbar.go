package logsvc

import (
	"log"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/microlearn/core"
	"github.com/trezcool/microlearn/core/user"
)

// RollbarLogger reports to Rollbar and mirrors every entry to a standard logger.
type RollbarLogger struct {
	std *log.Logger
}

var _ core.Logger = (*RollbarLogger)(nil) // interface compliance check

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	rollbar.SetEnabled(conf.RollbarToken != "" && !conf.TestMode)
	return &RollbarLogger{std: std}
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// prepare turns `args` into rollbar args: msg | error, map[string]interface{}.
// The first user.User becomes the rollbar person; the fields of core.LogFielder args are merged into the extras.
func (l RollbarLogger) prepare(msg string, args []interface{}) (rbArgs []interface{}, person *user.User) {
	var extras map[string]interface{}
	rbArgs = make([]interface{}, 0, len(args)+2)
	rbArgs = append(rbArgs, msg)

	addExtras := func(fields map[string]interface{}) {
		if extras == nil {
			extras = make(map[string]interface{}, len(fields))
		}
		for k, v := range fields {
			extras[k] = v
		}
	}

	for _, arg := range args {
		switch a := arg.(type) {
		case user.User:
			if person == nil { // only set one User
				usr := a
				person = &usr
			}
		case map[string]interface{}:
			addExtras(a)
		case core.LogFielder:
			addExtras(a.LogFields())
			if err, ok := a.(error); ok {
				rbArgs = append(rbArgs, err)
			}
		default:
			rbArgs = append(rbArgs, arg)
		}
	}
	if extras != nil {
		rbArgs = append(rbArgs, extras)
	}
	return rbArgs, person
}

func (l RollbarLogger) report(send func(...interface{}), msg string, args []interface{}) {
	rbArgs, person := l.prepare(msg, args)
	if person != nil {
		rollbar.SetPerson(person.ID, person.Username, person.Email)
	} else {
		rollbar.ClearPerson()
	}
	send(rbArgs...)
}

func (l RollbarLogger) print(msg string, args []interface{}) {
	l.std.Println(msg)
	for _, arg := range args {
		if usr, ok := arg.(user.User); ok {
			l.std.Printf("user: %s\n", usr.ID)
			continue
		}
		l.std.Printf("%+v\n", arg)
	}
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	l.report(rollbar.Debug, msg, args)
	l.print(msg, args)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	l.report(rollbar.Info, msg, args)
	l.print(msg, args)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	l.report(rollbar.Warning, msg, args)
	l.print(msg, args)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	l.report(rollbar.Error, msg, args)
	l.print(msg, args)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.report(rollbar.Critical, msg, args)
	rollbar.Wait()
	l.print(msg, args)
	l.std.Fatal(msg)
}
