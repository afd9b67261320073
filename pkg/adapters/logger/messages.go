package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Lifecycle controller (info)
		"Opening %s":                       "%s を開いています",
		"Failed to open %s: %s":            "%s を開けませんでした: %s",
		"Playback started: %dx%d, loop=%t": "再生を開始しました: %dx%d, ループ=%t",
		"Render pump stopped: %d frames presented, %d skipped": "描画ポンプを停止しました: %d フレーム表示, %d スキップ",
		"Session released":                "セッションを解放しました",
		"Failed to save debug output: %s": "デバッグ出力の保存に失敗しました: %s",

		// Lifecycle controller (debug)
		"Frame buffer allocated: %dx%d (%d bytes)": "フレームバッファを確保しました: %dx%d (%d バイト)",
		"Surface changed: format=%d %dx%d":         "サーフェスが変更されました: フォーマット=%d %dx%d",

		// Render pump (debug)
		"Render pump started at %v cadence":   "描画ポンプを %v 間隔で開始しました",
		"Render pump stopped after %d cycles": "描画ポンプは %d サイクル後に停止しました",

		// Clip session (debug)
		"Opened %s: %dx%d, %d frames, %v": "%s を開きました: %dx%d, %d フレーム, %v",
		"Playback finished at %v":         "%v で再生が終了しました",

		// H.264 decoder (warn)
		"Decoded %d pictures for %d samples, timestamps may drift": "%d 枚のピクチャを %d サンプルからデコードしました。タイムスタンプがずれる可能性があります",
	})
}
