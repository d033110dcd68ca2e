package handler

type ContextKey string

var (
	RequestIDCtxKey     ContextKey = "requestID"
	RoleCtxKey          ContextKey = "role"
	SubCtxKey           ContextKey = "sub"
	MyInfoCtx           ContextKey = "myInfo"
	UserInfoCtx         ContextKey = "userInfo"
	VehicleCtx          ContextKey = "vehicle"
	CheckCtx            ContextKey = "check"
	OperatingSessionCtx ContextKey = "operatingSession"
)
