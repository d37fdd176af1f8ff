package retcode

// 与 legacy 后台保持一致的业务码（负值为错误）
const (
	SUCCESS              = 1
	INVALID              = -1
	DB_READ_ERROR        = -3
	NOT_EXISTS           = -8
	AUTH_ERROR           = -14
	PARAM_INVALID        = -995
	ACCESS_TOKEN_TIMEOUT = -996
	EXCEPTION            = -999
)
