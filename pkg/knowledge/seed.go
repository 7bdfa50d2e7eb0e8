package knowledge

// Seed loads the initial personal corpus: profile, health, purchase history
// and preferences. Intended for first-run setup (cmd/seed) and tests.
func (s *Store) Seed() {
	s.AppendWithID("profile_basic", `ユーザーの基本情報：
- 主な悩み：腰痛が時々ある
- 生活スタイル：在宅勤務が主
- 好みの色：黒系
- 購入傾向：長く使えるものを重視
- 予算意識：3万円前後が目安`, map[string]string{"type": "profile", "category": "basic"})

	s.AppendWithID("health_info", `健康に関する情報：
- 腰痛あり（月1～2回程度）
- 運動習慣：週2～3回
- 睡眠：6～7時間
- 姿勢：デスク作業が多い`, map[string]string{"type": "health"})

	s.AppendWithID("past_purchases", `過去の購入履歴：
- ゲーミングチェア（1年前、硬め、腰痛悪化）→ 失敗
- メッシュ素材のオフィスチェア（3年前、快適）→ 成功
- 立つデスク用クッション（半年前）→ 効果あり

教訓：硬い素材は避けるべき、メッシュ素材が最適`, map[string]string{"type": "purchase_history"})

	s.AppendWithID("preferences", `あなたの好みとこだわり：
- 日本ブランドより信頼性
- Amazon レビュー 4.5 以上を重視
- デザインより機能性
- 長期保証があると安心
- サステナビリティに少し関心`, map[string]string{"type": "preferences"})
}
