package utils

import (
	"crypto/md5"
	"encoding/hex"
	"math/rand"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/holdno/snowFlakeByGo"
)

var (
	// IdWorker 全局唯一id生成器实例
	idWorker *snowFlakeByGo.Worker
)

func SetupIDWorker(clusterID int64) {
	idWorker, _ = snowFlakeByGo.NewWorker(clusterID)
}

func init() {
	SetupIDWorker(1)
}

func GenUniqID() int64 {
	return idWorker.GetId()
}

func GenUniqIDStr() string {
	return strconv.FormatInt(GenUniqID(), 10)
}

// Random 生成随机数
func Random(min, max int) int {
	if min == max {
		return max
	}
	max = max + 1
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	return min + r.Intn(max-min)
}

func MD5(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

func MaskString(s string, preLen, postLen int) string {
	runes := []rune(s)
	if len(runes) <= preLen+postLen {
		return "******"
	}
	return string(runes[:preLen]) + "******" + string(runes[len(runes)-postLen:])
}

// RuneLen counts characters, not bytes; used for user-facing length limits.
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}

// HumanSize formats a byte count with binary units, e.g. 10MB.
func HumanSize(n int64) string {
	const unit = 1024
	switch {
	case n >= unit*unit:
		return strconv.FormatFloat(float64(n)/float64(unit*unit), 'f', -1, 64) + "MB"
	case n >= unit:
		return strconv.FormatFloat(float64(n)/float64(unit), 'f', -1, 64) + "KB"
	}
	return strconv.FormatInt(n, 10) + "B"
}
