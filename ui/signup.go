package ui

import (
	"github.com/maxence-charriere/go-app/v9/pkg/app"

	"taskboard/domain"
)

// SignupPage registers a new account and forwards to the login view.
type SignupPage struct {
	app.Compo
	Username string
	Password string
	Error    string
	Loading  bool
}

func (p *SignupPage) signup(ctx app.Context, e app.Event) {
	e.PreventDefault()
	p.Loading = true
	p.Error = ""
	p.Update()

	creds := domain.Credentials{Username: p.Username, Password: p.Password}

	go func() {
		err := apiDo("POST", "/api/signup", "", creds, nil)
		ctx.Dispatch(func(ctx app.Context) {
			p.Loading = false
			if err != nil {
				p.Error = err.Error()
				p.Update()
				return
			}
			ctx.Navigate("/login")
		})
	}()
}

func (p *SignupPage) Render() app.UI {
	return app.Div().Class("auth-container").Body(
		app.Div().Class("auth-card").Body(
			app.H1().Class("auth-title").Text("Create Account"),

			app.Form().OnSubmit(p.signup).Class("auth-form").Body(
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

				app.Button().Type("submit").Class("btn-primary").Disabled(p.Loading).Text("Sign Up"),
			),

			app.Div().Class("auth-footer").Body(
				app.Text("Already have an account? "),
				app.A().Href("/login").Text("Log In"),
			),
		),
	)
}
