package refund

import "encoding/json"

// EncodeEvidence 将证据链接列表编码为入库的 JSON 字符串
func EncodeEvidence(urls []string) string {
	if len(urls) == 0 {
		return "[]"
	}
	body, err := json.Marshal(urls)
	if err != nil {
		return "[]"
	}
	return string(body)
}

// DecodeEvidence 解析入库的证据 JSON，数据损坏时返回空列表
func DecodeEvidence(raw string) []string {
	if raw == "" {
		return nil
	}
	var urls []string
	if err := json.Unmarshal([]byte(raw), &urls); err != nil {
		return nil
	}
	return urls
}
