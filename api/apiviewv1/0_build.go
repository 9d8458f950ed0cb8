package apiviewv1

import (
	"github.com/fulldump/box"

	"github.com/fulldump/scorepane/service"
)

func BuildV1View(v1 *box.R, s service.Servicer) *box.R {

	views := v1.Resource("/views").
		WithActions(
			box.Get(listViews),
			box.Post(createView),
		)

	v1.Resource("/views/{handle}").
		WithActions(
			box.Get(getView),
			box.ActionPost(load),
			box.ActionPost(renderPage),
			box.ActionPost(zoomIn),
			box.ActionPost(zoomOut),
			box.ActionPost(toggleOrientation),
			box.ActionPost(nextPage),
			box.ActionPost(prevPage),
			box.ActionPost(scroll),
			box.ActionPost(scrollTo),
			box.ActionPost(resize),
			box.ActionPost(pointerDown),
			box.ActionPost(pointerMove),
			box.ActionPost(pointerUp),
			box.ActionPost(click),
			box.ActionPost(document),
			box.ActionPost(destroy),
		)

	v1.Resource("/views/{handle}/content").
		WithActions(box.Get(content))

	v1.Resource("/views/{handle}/overlay").
		WithActions(box.Get(overlay))

	v1.Resource("/views/{handle}/events").
		WithActions(box.Get(streamEvents))

	return views
}
