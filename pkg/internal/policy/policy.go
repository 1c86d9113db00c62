// Package policy 决定上传文件是否被接受，以及它所属的分类.
//
// 两种匹配方式：
//   - exact：小写扩展名必须是允许列表中的某一项，声明的 MIME 必须属于允许的 MIME 集合；
//   - pattern：允许列表用 | 拼接成一个正则，分别对 ".ext" 与原始 MIME 做子串匹配.
//
// 扩展名只允许 [a-z0-9_+-]，其余一律视为不支持.
package policy

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/yeisme/filesort/pkg/configs"
	"github.com/yeisme/filesort/pkg/internal/types"
	"github.com/yeisme/filesort/pkg/rule"
)

// SniffLimit 内容嗅探读取的最大字节数.
const SniffLimit = 3072

// ErrUnsupportedType 文件类型不在允许列表中.
var ErrUnsupportedType = errors.New("file type not supported")

// Policy 对单个文件做校验与分类.
type Policy interface {
	Classify(f types.IncomingFile) (types.ClassifiedFile, error)
}

// New 根据上传配置构造匹配策略.
func New(cfg configs.UploadConfig) (Policy, error) {
	var (
		p   Policy
		err error
	)

	switch cfg.MatchMode {
	case configs.MatchPattern:
		p, err = newPatternPolicy(cfg.AllowedTypes)
	case configs.MatchExact, "":
		p = newExactPolicy(cfg.AllowedTypes, cfg.MIMETypes)
	default:
		return nil, fmt.Errorf("unknown match mode: %s", cfg.MatchMode)
	}

	if err != nil {
		return nil, err
	}

	if cfg.SniffContent {
		p = &sniffPolicy{next: p, allowed: allowedMIMEs(cfg.AllowedTypes, cfg.MIMETypes)}
	}

	return p, nil
}

// Extension 返回文件名最后一个点之后的部分（含点，保留大小写）.
// 没有点或点位于首字符（如 .bashrc）时返回空串.
func Extension(filename string) string {
	name := filename
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}

	i := strings.LastIndex(name, ".")
	if i <= 0 {
		return ""
	}

	return name[i:]
}

// Category 返回小写、不含点的扩展名.
func Category(filename string) string {
	return strings.ToLower(strings.TrimPrefix(Extension(filename), "."))
}

// BaseMIME 去掉参数并转小写，解析失败时退化为分号前的部分.
func BaseMIME(contentType string) string {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		return mt
	}

	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}

	return strings.ToLower(strings.TrimSpace(contentType))
}

func classified(f types.IncomingFile) types.ClassifiedFile {
	return types.ClassifiedFile{
		IncomingFile: f,
		Category:     Category(f.Filename),
		Ext:          Extension(f.Filename),
	}
}

type exactPolicy struct {
	tokens map[string]struct{}
	mimes  map[string]struct{}
}

func newExactPolicy(tokens, extraMIMEs []string) *exactPolicy {
	p := &exactPolicy{
		tokens: make(map[string]struct{}, len(tokens)),
		mimes:  allowedMIMEs(tokens, extraMIMEs),
	}

	for _, tok := range tokens {
		p.tokens[strings.ToLower(tok)] = struct{}{}
	}

	return p
}

func (p *exactPolicy) Classify(f types.IncomingFile) (types.ClassifiedFile, error) {
	cf := classified(f)

	if !rule.IsExtToken(cf.Category) {
		return cf, ErrUnsupportedType
	}

	if _, ok := p.tokens[cf.Category]; !ok {
		return cf, ErrUnsupportedType
	}

	if !p.mimeAllowed(BaseMIME(f.ContentType)) {
		return cf, ErrUnsupportedType
	}

	return cf, nil
}

func (p *exactPolicy) mimeAllowed(mt string) bool {
	if mt == "" {
		return false
	}

	if _, ok := p.mimes[mt]; ok {
		return true
	}

	// mimetype 认识别名，例如 image/pjpeg 对应 .jpg
	known := mimetype.Lookup(mt)
	if known == nil {
		return false
	}

	_, ok := p.tokens[strings.TrimPrefix(known.Extension(), ".")]

	return ok
}

// allowedMIMEs 汇总显式配置的 MIME 与扩展名映射得到的 MIME.
func allowedMIMEs(tokens, extra []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens)+len(extra))

	for _, mt := range extra {
		set[BaseMIME(mt)] = struct{}{}
	}

	for _, tok := range tokens {
		if mt := mime.TypeByExtension("." + strings.ToLower(tok)); mt != "" {
			set[BaseMIME(mt)] = struct{}{}
		}
	}

	return set
}

type patternPolicy struct {
	re *regexp.Regexp
}

func newPatternPolicy(tokens []string) (*patternPolicy, error) {
	re, err := regexp.Compile("(?i)" + strings.Join(tokens, "|"))
	if err != nil {
		return nil, fmt.Errorf("compile allowed types pattern: %w", err)
	}

	return &patternPolicy{re: re}, nil
}

func (p *patternPolicy) Classify(f types.IncomingFile) (types.ClassifiedFile, error) {
	cf := classified(f)

	if !rule.IsExtToken(cf.Category) {
		return cf, ErrUnsupportedType
	}

	if !p.re.MatchString(cf.Ext) || !p.re.MatchString(f.ContentType) {
		return cf, ErrUnsupportedType
	}

	return cf, nil
}

// sniffPolicy 在前置策略通过后，再检查文件头部的真实类型.
type sniffPolicy struct {
	next    Policy
	allowed map[string]struct{}
}

func (p *sniffPolicy) Classify(f types.IncomingFile) (types.ClassifiedFile, error) {
	cf, err := p.next.Classify(f)
	if err != nil {
		return cf, err
	}

	if f.Open == nil {
		return cf, ErrUnsupportedType
	}

	rc, err := f.Open()
	if err != nil {
		return cf, fmt.Errorf("open for sniffing: %w", err)
	}
	defer rc.Close()

	detected, err := mimetype.DetectReader(io.LimitReader(rc, SniffLimit))
	if err != nil {
		return cf, fmt.Errorf("sniff content: %w", err)
	}

	for m := detected; m != nil; m = m.Parent() {
		if _, ok := p.allowed[BaseMIME(m.String())]; ok {
			return cf, nil
		}

		if strings.TrimPrefix(m.Extension(), ".") == cf.Category {
			return cf, nil
		}
	}

	return cf, ErrUnsupportedType
}
