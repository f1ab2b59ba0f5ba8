package render

const layoutHTML = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{if ne .Page.ID "index"}}{{.Page.Title}} | {{end}}{{.Site.Title}}</title>
{{with .Page.Description}}<meta name="description" content="{{.}}">{{else}}{{with .Site.Description}}<meta name="description" content="{{.}}">{{end}}{{end}}
{{with .Site.URL}}<link rel="canonical" href="{{.}}{{$.Page.URL}}">{{end}}
<style>
body{margin:0;font-family:system-ui,sans-serif;line-height:1.6;color:#23262f}
header{display:flex;justify-content:space-between;align-items:center;padding:.75rem 1.5rem;border-bottom:1px solid #e3e5ea}
header a{color:inherit;text-decoration:none}
.layout{display:flex}
nav.sidebar{width:16rem;padding:1rem 1.5rem;border-right:1px solid #e3e5ea}
nav.sidebar ul{list-style:none;padding-left:0}
nav.sidebar li ul{padding-left:.75rem}
nav.sidebar a[aria-current=page]{font-weight:600;color:#6b3fd4}
main{flex:1;max-width:48rem;padding:1rem 2rem}
main.splash{max-width:none;text-align:center}
footer{margin-top:3rem;font-size:.875rem}
</style>
</head>
<body>
<header>
<a class="site-title" href="/">{{.Site.Title}}</a>
<span class="social">{{range .Social}}<a href="{{.URL}}" rel="me">{{.Name}}</a> {{end}}</span>
</header>
<div class="layout">
{{if not .Splash}}<nav class="sidebar" aria-label="Main">
<ul>
{{range .Nav}}{{if .URL}}<li><a href="{{.URL}}">{{.Label}}</a></li>
{{else}}<li><details{{if not .Collapsed}} open{{end}}><summary>{{.Label}}</summary>
<ul>
{{range .Links}}<li><a href="{{.URL}}"{{if .Current}} aria-current="page"{{end}}>{{.Label}}</a></li>
{{end}}</ul>
</details></li>
{{end}}{{end}}</ul>
</nav>
{{end}}<main{{if .Splash}} class="splash"{{end}}>
<h1>{{.Page.Title}}</h1>
{{.Body}}
{{with .EditURL}}<footer><a href="{{.}}">Edit page</a></footer>{{end}}
</main>
</div>
</body>
</html>
`
