package constant

// PartnerPromptTemplate composes the prompt for one turn: role preamble,
// retrieved knowledge-store context, the literal user question, and the
// trailing 回答： cue that tells the model to answer now.
// Placeholders: context, question.
const PartnerPromptTemplate = `あなたはユーザーの個人用 AI パートナーです。
ユーザーの過去データを踏まえて、実用的で具体的なアドバイスをしてください。

ユーザーのデータ：
%s

ユーザーの質問：%s

回答：`

// AIRole is the role attributed to generated answers.
const AIRole = "ai"
