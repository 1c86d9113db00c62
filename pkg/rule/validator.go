// Package rule 提供结构体和字段验证功能的封装，基于 go-playground/validator 实现.
//
// 标签名为 rule，内置额外规则：
//
//	ext_token  小写扩展名记号，仅允许 [a-z0-9_+-]
//	regexp     可被 regexp.Compile 编译的表达式
package rule

import (
	"regexp"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	inst *validator.Validate
	once sync.Once

	extTokenRe = regexp.MustCompile(`^[a-z0-9_+\-]+$`)
)

// initValidator 新建 validator 并注册 tag name 与内置规则.
func initValidator() {
	inst = validator.New(validator.WithRequiredStructEnabled())
	inst.SetTagName("rule")

	_ = inst.RegisterValidation("ext_token", func(fl validator.FieldLevel) bool {
		return IsExtToken(fl.Field().String())
	})
	_ = inst.RegisterValidation("regexp", func(fl validator.FieldLevel) bool {
		_, err := regexp.Compile(fl.Field().String())
		return err == nil
	})
}

// lazyInit 初始化全局 validator（幂等）.
func lazyInit() {
	once.Do(initValidator)
}

// Engine 返回全局 *validator.Validate，若未初始化则先初始化.
func Engine() *validator.Validate {
	lazyInit()

	return inst
}

// IsExtToken 判断字符串是否为合法的小写扩展名记号.
func IsExtToken(s string) bool {
	return extTokenRe.MatchString(s)
}

// RegisterValidation 代理 RegisterValidation，确保已初始化.
func RegisterValidation(tag string, fn validator.Func, opts ...bool) error {
	lazyInit()

	return inst.RegisterValidation(tag, fn, opts...)
}

// ValidateStruct 对结构体执行完整校验，返回原始 error（可用 validator.ValidationErrors 解析）.
func ValidateStruct(s any) error {
	lazyInit()

	return inst.Struct(s)
}

// ValidateVar 按规则对单个变量校验，例如: ValidateVar("jpg", "required,ext_token").
func ValidateVar(field any, tag string) error {
	lazyInit()

	return inst.Var(field, tag)
}

// RegisterAlias 包装 RegisterAlias，便于注册别名规则.
func RegisterAlias(alias, rules string) {
	lazyInit()

	inst.RegisterAlias(alias, rules)
}
