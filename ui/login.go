package ui

import (
	"github.com/maxence-charriere/go-app/v9/pkg/app"

	"taskboard/domain"
)

// LoginPage exchanges credentials for a token, persists it and forwards to
// the task list.
type LoginPage struct {
	app.Compo
	Username string
	Password string
	Error    string
	Loading  bool
}

func (p *LoginPage) login(ctx app.Context, e app.Event) {
	e.PreventDefault()
	p.Loading = true
	p.Error = ""
	p.Update()

	creds := domain.Credentials{Username: p.Username, Password: p.Password}

	go func() {
		var resp struct {
			Token string `json:"token"`
		}
		err := apiDo("POST", "/api/login", "", creds, &resp)
		ctx.Dispatch(func(ctx app.Context) {
			p.Loading = false
			if err != nil {
				p.Error = err.Error()
				p.Update()
				return
			}
			storeToken(ctx, resp.Token)
			ctx.Navigate("/")
		})
	}()
}

func (p *LoginPage) Render() app.UI {
	return app.Div().Class("auth-container").Body(
		app.Div().Class("auth-card").Body(
			app.H1().Class("auth-title").Text("Log In"),

			app.Form().OnSubmit(p.login).Class("auth-form").Body(
				app.Div().Class("field").Body(
					app.Label().Text("Username"),
					app.Input().Type("text").Required(true).Value(p.Username).OnInput(p.ValueTo(&p.Username)).AutoFocus(true),
				),
				app.Div().Class("field").Body(
					app.Label().Text("Password"),
					app.Input().Type("password").Required(true).Value(p.Password).OnInput(p.ValueTo(&p.Password)),
				),

				app.If(p.Error != "",
					app.Div().Class("error-banner").Body(
						app.Text(p.Error),
						app.Button().Type("button").Class("dismiss").Text("x").OnClick(func(ctx app.Context, e app.Event) {
							p.Error = ""
							p.Update()
						}),
					),
				),

				app.Button().Type("submit").Class("btn-primary").Disabled(p.Loading).Text("Log In"),
			),

			app.Div().Class("auth-footer").Body(
				app.Text("Don't have an account? "),
				app.A().Href("/signup").Text("Sign Up"),
			),
		),
	)
}
