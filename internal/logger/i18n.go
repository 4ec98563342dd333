package logger

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LocalesDir holds optional <language>.yaml files overriding the embedded
// catalog.
var LocalesDir = "locales"

type LocaleMessages struct {
	Messages map[string]string `yaml:"messages"`
}

func loadLocaleMessages(language string) (map[string]string, error) {
	messages := getEmbeddedMessages(language)

	data, err := os.ReadFile(filepath.Join(LocalesDir, language+".yaml"))
	if err != nil {
		if os.IsNotExist(err) {
			return messages, nil
		}
		return nil, err
	}

	var locale LocaleMessages
	if err := yaml.Unmarshal(data, &locale); err != nil {
		return nil, err
	}

	for key, message := range locale.Messages {
		messages[key] = message
	}
	return messages, nil
}

func getEmbeddedMessages(language string) map[string]string {
	switch strings.ToLower(language) {
	case "ja-jp":
		return map[string]string{
			"app_started":                  "Galleon を起動しました",
			"config_not_found":             "設定ファイルが見つかりません。既定値を使用します",
			"config_loaded":                "設定を読み込みました",
			"config_created":               "設定ファイルを作成しました",
			"config_already_exists":        "設定ファイルは既に存在します",
			"config_invalid":               "設定が不正です",
			"azure_client_created":         "Azure クライアントを作成しました",
			"gallery_resolved":             "ギャラリーを取得しました",
			"connectivity_ok":              "ギャラリーに接続できました",
			"connectivity_failed":          "ギャラリーに接続できません",
			"copy_started":                 "コピーを開始しました",
			"copy_completed":               "コピーが完了しました",
			"unusual_target_regions":       "ターゲットリージョンにプレビュー用リージョンが含まれています",
			"definition_lookup_failed":     "既存のイメージ定義を取得できませんでした",
			"definition_attributes_differ": "既存のイメージ定義の属性がソースと異なります",
			"event_recorder_failed":        "イベントの記録に失敗しました",
			"html_report_generated":        "HTML レポートを作成しました",
			"report_failed":                "レポートの作成に失敗しました",
			"history_saved":                "実行履歴を保存しました",
			"webhook_sent":                 "Webhook を送信しました",
			"webhook_retry":                "Webhook を再送します",
			"discord_webhook_failed":       "Discord Webhook の送信に失敗しました",
			"operation_completed":          "処理が完了しました",
			"operation_failed":             "処理に失敗しました",
		}
	default:
		return map[string]string{
			"app_started":                  "Galleon started",
			"config_not_found":             "Configuration file not found, using defaults",
			"config_loaded":                "Configuration loaded",
			"config_created":               "Configuration file created",
			"config_already_exists":        "Configuration file already exists",
			"config_invalid":               "Configuration is invalid",
			"azure_client_created":         "Azure client created",
			"gallery_resolved":             "Gallery resolved",
			"connectivity_ok":              "Gallery is reachable",
			"connectivity_failed":          "Gallery is not reachable",
			"copy_started":                 "Copy started",
			"copy_completed":               "Copy completed",
			"unusual_target_regions":       "Target regions include regions that may not be available to the target subscription",
			"definition_lookup_failed":     "Could not read the existing image definition",
			"definition_attributes_differ": "Existing image definition differs from the source; its versions may fail to copy",
			"event_recorder_failed":        "Event recorder failed",
			"html_report_generated":        "HTML report generated",
			"report_failed":                "Report could not be written",
			"history_saved":                "Run history saved",
			"webhook_sent":                 "Webhook sent",
			"webhook_retry":                "Retrying webhook",
			"discord_webhook_failed":       "Discord webhook failed",
			"operation_completed":          "Operation completed",
			"operation_failed":             "Operation failed",
		}
	}
}
