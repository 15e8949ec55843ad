package server

import (
	"html/template"
	"net/http"
	"time"
)

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="ru">
<head>
<meta charset="utf-8">
<meta http-equiv="refresh" content="5">
<title>Журнал чата</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; width: 100%; }
td { border-bottom: 1px solid #ddd; padding: 4px 8px; vertical-align: top; }
.meta { color: #888; white-space: nowrap; }
.media { color: #555; font-size: 90%; }
.spoiler { background: #333; color: #333; }
.spoiler:hover { color: #fff; }
</style>
</head>
<body>
<h1>Журнал чата {{.ChatID}}</h1>
{{if not .Live}}<p>Живой режим выключен.</p>
{{else if not .Messages}}<p>Сообщений пока нет.</p>
{{else}}<p>Последние {{len .Messages}} из {{.Capacity}}.</p>
<table>
{{range .Messages}}<tr>
<td class="meta">{{.Time}}</td>
<td class="meta">{{.Badge}}</td>
<td><b>{{.Sender}}</b></td>
<td>{{.HTML}}{{if .MediaSummary}} <span class="media">({{.MediaSummary}})</span>{{end}}</td>
</tr>
{{end}}</table>
{{end}}
</body>
</html>
`))

type pageMessage struct {
	Time         string
	Badge        string
	Sender       string
	HTML         template.HTML
	MediaSummary string
}

type indexPage struct {
	ChatID   int64
	Live     bool
	Capacity int
	Messages []pageMessage
}

// handleIndex показывает буфер живого режима; страница обновляется сама.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page := indexPage{ChatID: s.cfg.Chat.TargetChat, Live: s.deps.Log != nil}
	if page.Live {
		page.Capacity = s.deps.Log.Cap()
		for _, v := range newMessageViews(s.deps.Log.Snapshot()) {
			page.Messages = append(page.Messages, pageMessage{
				Time:   time.Unix(v.Timestamp, 0).UTC().Format("2006-01-02 15:04:05"),
				Badge:  v.Badge,
				Sender: v.Sender,
				// render.HTML уже экранирует текст.
				HTML:         template.HTML(v.HTML),
				MediaSummary: v.MediaSummary,
			})
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, page); err != nil {
		s.log.ErrorContext(r.Context(), "Failed to render index page", "error", err)
	}
}
