package handler

// Route pattern constants for chi router registration.
const (
	// RouteRoot is the root path.
	RouteRoot = "/"
	// RouteParamID is the ID parameter pattern.
	RouteParamID = "/{id}"
	// RouteParamSlug is the slug parameter pattern.
	RouteParamSlug = "/{slug}"

	// RouteLogin is the login route.
	RouteLogin = "/login"
	// RouteRegister is the registration route.
	RouteRegister = "/register"
	// RouteLogout is the logout route.
	RouteLogout = "/logout"
	// RoutePosts is the posts feed route.
	RoutePosts = "/posts"
	// RoutePostsNew is the post composer route.
	RoutePostsNew = RoutePosts + "/new"
	// RoutePostsID is the post detail route pattern.
	RoutePostsID = RoutePosts + RouteParamID
	// RoutePostsIDComments is the comment submission route pattern.
	RoutePostsIDComments = RoutePostsID + "/comments"
	// RouteAbout is the about page route.
	RouteAbout = "/about"
	// RouteProfile is the profile route.
	RouteProfile = "/profile"
	// RouteUploadsImages is the image upload proxy route.
	RouteUploadsImages = "/uploads/images"
	// RouteAdminEvents is the event log admin route.
	RouteAdminEvents = "/admin/events"
	// RouteAdminUsersIDRole is the role management route pattern.
	RouteAdminUsersIDRole = "/admin/users" + RouteParamID + "/role"
	// RouteHealthz is the health check route.
	RouteHealthz = "/healthz"
)

const (
	redirectLogin    = RouteLogin
	redirectRegister = RouteRegister
	redirectPosts    = RoutePosts
	redirectAbout    = RouteAbout
	redirectProfile  = RouteProfile
	redirectRoot     = RouteRoot
)

// HeaderContentType is the Content-Type HTTP header name.
const HeaderContentType = "Content-Type"
