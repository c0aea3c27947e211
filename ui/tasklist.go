package ui

import (
	"github.com/maxence-charriere/go-app/v9/pkg/app"

	"taskboard/domain"
)

// TaskListPage is the main view. Every mutation re-fetches the list, so the
// rendered state never holds stale entries.
type TaskListPage struct {
	app.Compo
	Tasks        []domain.Task
	NewTitle     string
	EditingID    string
	EditingTitle string
	Error        string
	Loading      bool
	Submitting   bool

	token string
}

func (p *TaskListPage) OnMount(ctx app.Context) {
	p.token = readToken(ctx)
	if p.token == "" {
		ctx.Navigate("/login")
		return
	}
	p.fetchTasks(ctx)
}

func (p *TaskListPage) fetchTasks(ctx app.Context) {
	p.Loading = true
	p.Error = ""
	p.Update()

	token := p.token
	go func() {
		var tasks []domain.Task
		err := apiDo("GET", "/api/tasks", token, nil, &tasks)
		ctx.Dispatch(func(ctx app.Context) {
			p.Loading = false
			if err != nil {
				p.Error = "Error fetching tasks: " + err.Error()
			} else {
				p.Tasks = tasks
			}
			p.Update()
		})
	}()
}

// mutate runs an API call and reconciles by re-fetching the full list.
func (p *TaskListPage) mutate(ctx app.Context, call func(token string) error) {
	if p.Submitting {
		return
	}
	p.Submitting = true
	p.Error = ""
	p.Update()

	token := p.token
	go func() {
		err := call(token)
		ctx.Dispatch(func(ctx app.Context) {
			p.Submitting = false
			if err != nil {
				p.Error = err.Error()
				p.Update()
				return
			}
			p.fetchTasks(ctx)
		})
	}()
}

func (p *TaskListPage) addTask(ctx app.Context, e app.Event) {
	e.PreventDefault()
	title := p.NewTitle
	if title == "" {
		return
	}
	p.NewTitle = ""
	p.mutate(ctx, func(token string) error {
		return apiDo("POST", "/api/tasks", token, map[string]string{"title": title}, nil)
	})
}

func (p *TaskListPage) toggleTask(task domain.Task) func(app.Context, app.Event) {
	return func(ctx app.Context, e app.Event) {
		completed := !task.Completed
		p.mutate(ctx, func(token string) error {
			return apiDo("PUT", "/api/tasks/"+task.ID, token, map[string]bool{"completed": completed}, nil)
		})
	}
}

func (p *TaskListPage) deleteTask(id string) func(app.Context, app.Event) {
	return func(ctx app.Context, e app.Event) {
		p.mutate(ctx, func(token string) error {
			return apiDo("DELETE", "/api/tasks/"+id, token, nil, nil)
		})
	}
}

func (p *TaskListPage) startEdit(task domain.Task) func(app.Context, app.Event) {
	return func(ctx app.Context, e app.Event) {
		p.EditingID = task.ID
		p.EditingTitle = task.Title
		p.Update()
	}
}

func (p *TaskListPage) saveEdit(ctx app.Context, e app.Event) {
	e.PreventDefault()
	if p.EditingID == "" || p.EditingTitle == "" {
		return
	}
	id, title := p.EditingID, p.EditingTitle
	p.EditingID = ""
	p.EditingTitle = ""
	p.mutate(ctx, func(token string) error {
		return apiDo("PUT", "/api/tasks/"+id, token, map[string]string{"title": title}, nil)
	})
}

func (p *TaskListPage) cancelEdit(ctx app.Context, e app.Event) {
	p.EditingID = ""
	p.EditingTitle = ""
	p.Update()
}

func (p *TaskListPage) logout(ctx app.Context, e app.Event) {
	clearToken(ctx)
	ctx.Navigate("/login")
}

func (p *TaskListPage) Render() app.UI {
	return app.Div().Class("task-container").Body(
		app.Div().Class("task-header").Body(
			app.H1().Text("My Tasks"),
			app.Button().Class("btn-secondary").Text("Log Out").OnClick(p.logout),
		),

		app.If(p.Error != "",
			app.Div().Class("error-banner").Body(
				app.Text(p.Error),
				app.Button().Type("button").Class("dismiss").Text("x").OnClick(func(ctx app.Context, e app.Event) {
					p.Error = ""
					p.Update()
				}),
				app.Button().Type("button").Class("btn-secondary").Text("Retry").OnClick(func(ctx app.Context, e app.Event) {
					p.fetchTasks(ctx)
				}),
			),
		),

		app.Form().OnSubmit(p.addTask).Class("task-add").Body(
			app.Input().Type("text").Placeholder("New task").Value(p.NewTitle).OnInput(p.ValueTo(&p.NewTitle)),
			app.Button().Type("submit").Class("btn-primary").Disabled(p.Submitting).Text("Add"),
		),

		app.If(p.Loading,
			app.P().Text("Loading tasks..."),
		).Else(
			app.Ul().Class("task-list").Body(
				app.Range(p.Tasks).Slice(func(i int) app.UI {
					task := p.Tasks[i]
					if task.ID == p.EditingID {
						return p.renderEditRow(task)
					}
					return p.renderRow(task)
				}),
			),
		),
	)
}

func (p *TaskListPage) renderRow(task domain.Task) app.UI {
	title := app.Span().Class("task-title").Text(task.Title)
	if task.Completed {
		title = title.Class("done")
	}
	return app.Li().Class("task-row").Body(
		app.Input().Type("checkbox").Checked(task.Completed).Disabled(p.Submitting).OnChange(p.toggleTask(task)),
		title,
		app.Div().Class("task-actions").Body(
			app.Button().Type("button").Text("Edit").Disabled(p.Submitting).OnClick(p.startEdit(task)),
			app.Button().Type("button").Text("Delete").Disabled(p.Submitting).OnClick(p.deleteTask(task.ID)),
		),
	)
}

func (p *TaskListPage) renderEditRow(task domain.Task) app.UI {
	return app.Li().Class("task-row editing").Body(
		app.Form().OnSubmit(p.saveEdit).Body(
			app.Input().Type("text").Value(p.EditingTitle).OnInput(p.ValueTo(&p.EditingTitle)).AutoFocus(true),
			app.Button().Type("submit").Disabled(p.Submitting).Text("Save"),
			app.Button().Type("button").Text("Cancel").OnClick(p.cancelEdit),
		),
	)
}
