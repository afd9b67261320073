// Package main provides localization for the movieview CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Root command
		"Play decoded video onto a display surface": "デコードした動画を表示サーフェスに再生",
		"YAML configuration file":                   "YAML設定ファイル",
		"Log level (debug, info, warn, error)":      "ログレベル（debug, info, warn, error）",
		"Suppress all log output":                   "全てのログ出力を抑制",

		// Play command
		"Play a clip on an offscreen surface":                           "オフスクリーンサーフェスでクリップを再生",
		"Directory that source names are resolved in":                   "ソース名を解決するディレクトリ",
		"Stop at the end of the clip":                                   "クリップの終わりで停止",
		"Render pump interval in milliseconds":                          "描画ポンプの間隔（ミリ秒）",
		"Do not wait for the render pump when the surface is destroyed": "サーフェス破棄時に描画ポンプの終了を待たない",
		"Surface width in pixels":                                       "サーフェスの幅（ピクセル）",
		"Surface height in pixels":                                      "サーフェスの高さ（ピクセル）",
		"Background color (hex, e.g., #000000)":                         "背景色（16進数、例: #000000）",
		"Scale frames larger than the surface down to fit":              "サーフェスより大きいフレームを縮小して収める",
		"How long to keep the surface alive (0 = until playback ends)":  "サーフェスを維持する時間（0 = 再生終了まで）",
		"Path to ffmpeg executable":                                     "ffmpeg実行ファイルのパス",
		"Enable debug output":                                           "デバッグ出力を有効化",
		"Directory for debug output":                                    "デバッグ出力のディレクトリ",

		"Output playback summary to file (Markdown format)": "再生サマリーをファイルに出力（Markdown形式）",

		// Probe command
		"Print the video format of an MP4 file": "MP4ファイルの動画形式を表示",
		"Print as JSON":                         "JSONで出力",

		// Version command
		"Show version information": "バージョン情報を表示",
		"movieview version %s":     "movieview バージョン %s",

		// Runtime messages
		"Interrupted, shutting down...":                        "中断されました。シャットダウン中...",
		"Played %d of %d ms: %d frames presented in %d cycles": "%d / %d ms 再生: %d フレーム表示 (%d サイクル)",
		"Debug output saved to %s":                             "デバッグ出力を %s に保存しました",
		"%s: %s %dx%d, %d ms, %.2f fps":                        "%s: %s %dx%d, %d ms, %.2f fps",

		"Summary saved to %s":         "サマリーを %s に保存しました",
		"Failed to write summary: %s": "サマリーの書き込みに失敗しました: %s",

		// Summary content
		"Playback Summary":  "再生サマリー",
		"Source":            "ソース",
		"Settings":          "設定",
		"Playback":          "再生",
		"Item":              "項目",
		"Value":             "値",
		"Name":              "名前",
		"Codec":             "コーデック",
		"Frame Size":        "フレームサイズ",
		"Duration":          "再生時間",
		"Frame Rate":        "フレームレート",
		"File Size":         "ファイルサイズ",
		"Loop":              "ループ",
		"Cadence":           "間隔",
		"Surface Size":      "サーフェスサイズ",
		"Fit Larger Frames": "大きいフレームを縮小",
		"Teardown":          "破棄時の動作",
		"Joined":            "ポンプ終了を待機",
		"Detached":          "待機なし",
		"Position":          "再生位置",
		"Wall Time":         "経過時間",
		"Pump Cycles":       "ポンプサイクル数",
		"Frames Updated":    "更新フレーム数",
		"Frames Presented":  "表示フレーム数",
		"Presents Skipped":  "スキップ数",
		"Yes":               "はい",
		"No":                "いいえ",
		"Generated at":      "生成日時",

		// Error messages
		"Source argument is required": "ソース引数が必要です",
		"File argument is required":   "ファイル引数が必要です",
		"%s has no video track":       "%s に動画トラックがありません",
	})
}
