package config

import "time"

// DefaultPromptTemplate is used when portrayal.prompt_template is not set.
// Placeholders: {person_name} {user_nickname} {message_count} {messages}
// {context_length} {context_length_after}. "{{" and "}}" are literal braces.
const DefaultPromptTemplate = `# Role
你是一位拥有敏锐洞察力的资深心理侧写师和AI人格架构师。你擅长通过零散的聊天记录，精准捕捉人物的性格底色、说话习惯和社交属性。你的分析既专业又带有娱乐性，能够通过字里行间发现用户的“灵魂本质”。

# Context
我需要你分析群聊用户「{person_name}」（昵称：{user_nickname}）。
为了帮助你理解语境，我提供了该用户发送的消息，以及每条消息前 {context_length} 条和后 {context_length_after} 条的上下文消息，共 {message_count} 条。
**注意**：
1. 聊天记录中的图片已被过滤，请忽略图片缺失带来的影响。
2. 聊天记录有限，请关注**重复出现的模式**（如口癖、情绪倾向、对待他人的态度），避免因单句脱离语境的发言而产生“过拟合”的误判。
3. 区分“目标用户发言”与“他人发言”，他人发言仅作为理解语境的参考。

# Task
请基于提供的聊天记录，完成以下两个任务：

## 任务一：全方位用户画像 (Profile Analysis)
1.  **核心性格 (MBTI推测)**：推测其MBTI倾向，并用3个关键词概括性格。
2.  **语言风格 (Linguistic Style)**：分析其用词习惯、标点使用、常用梗、语气助词。
3.  **社交生态 (Social Role)**：在群里的定位。
4.  **兴趣与能力 (Interests & Abilities)**：根据聊天内容推断其爱好、擅长的领域或经常讨论的话题。
5.  **潜在弱点/槽点 (Roast)**：以幽默/调侃的语气指出该用户的一个可爱缺点或槽点。

## 任务二：AI克隆指令
基于以上分析，使用中文编写一段**高质量的System Prompt**，用于指导另一个AI完美扮演该用户。该Prompt应该包含人物设定、对话规则。

# Input Data
--- 聊天记录开始 ---
{messages}
--- 聊天记录结束 ---

# Output Requirement
请先输出【任务一】的分析结果，风格要生动、幽默，符合娱乐向定位。
然后在一个 **Markdown代码块** 中输出【任务二】的Prompt。`

// DefaultMessages are the user-facing texts.
var DefaultMessages = MessagesConfig{
	Help: "用法：\n" +
		"/画像 [名字] [聊天ID|全部] - 根据聊天记录生成用户画像，@某人可为其生成画像\n" +
		"/sketch_rename <用户ID> <名字> - 修改用户的称呼（仅管理员）\n" +
		"/sketch_last [用户ID] - 查看最近一次生成的画像（仅管理员）",
	NotAuthorized:     "你没有使用该功能的权限",
	GeneralError:      "出现了一些问题，请稍后再试。",
	NoModelConfigFmt:  "未找到可用的 %s 模型配置",
	EmptyPrompt:       "画像提示词为空",
	NoTarget:          "未能确定画像对象的用户ID，请检查命令格式或@的用户信息。",
	StreamDenied:      "你没有使用该参数的权限",
	NoRecordsFmt:      "未找到用户 %s 的消息记录，无法生成画像。",
	NoValidContent:    "未找到有效的消息内容，无法生成画像。",
	ProgressFmt:       "使用了 %d 条历史消息，其中目标用户 %d 条，上下文 %d 条。正在生成画像，请稍候...",
	RenameUsage:       "用法：/sketch_rename <用户ID> <名字>",
	RenameDoneFmt:     "已将用户 %s 的称呼修改为 %s",
	RenameUnknownUser: "未找到该用户的记录",
	HistoryEmpty:      "还没有为该用户生成过画像",
	HistoryHeaderFmt:  "%s 的最近一次画像（%s）：\n\n",
}

// Default values for optional settings.
const (
	DefaultLogLevel = "info"
	DefaultDBPath   = "storage.db"

	DefaultGeminiTimeout time.Duration = 0

	DefaultLLMGroup             = "utils"
	DefaultLLMMaxTokens         = 20000
	DefaultLLMTemperature       = 0.7
	DefaultLLMSlowThreshold     = 30 * time.Second
	DefaultLLMSelectionStrategy = "balance"

	DefaultContextLength         = 3
	DefaultContextLengthAfter    = 1
	DefaultMaxMessageCount       = 700
	DefaultRetrievalMessageCount = 30000
	DefaultMaxMessageLength      = 200
	DefaultLookback              = 30 * 24 * time.Hour
	DefaultAllStreamsToken       = "全部"

	DefaultPermissionMode = PermissionBlacklist
	DefaultRetentionDays  = 90
)

// defaults is registered with viper before the file is read.
var defaults = map[string]any{
	"logger.level":            DefaultLogLevel,
	"logger.json":             false,
	"database.path":           DefaultDBPath,
	"database.retention_days": DefaultRetentionDays,
	"gemini.timeout":          DefaultGeminiTimeout,

	"llm.group":              DefaultLLMGroup,
	"llm.max_tokens":         DefaultLLMMaxTokens,
	"llm.temperature":        DefaultLLMTemperature,
	"llm.slow_threshold":     DefaultLLMSlowThreshold,
	"llm.selection_strategy": DefaultLLMSelectionStrategy,
	"llm.groups": map[string]any{
		DefaultLLMGroup: map[string]any{
			"models":             []string{"gemini-2.5-flash"},
			"max_tokens":         8192,
			"temperature":        0.7,
			"slow_threshold":     DefaultLLMSlowThreshold,
			"selection_strategy": DefaultLLMSelectionStrategy,
		},
	},

	"portrayal.context_length":          DefaultContextLength,
	"portrayal.context_length_after":    DefaultContextLengthAfter,
	"portrayal.max_message_count":       DefaultMaxMessageCount,
	"portrayal.retrieval_message_count": DefaultRetrievalMessageCount,
	"portrayal.max_message_length":      DefaultMaxMessageLength,
	"portrayal.lookback":                DefaultLookback,
	"portrayal.all_streams_token":       DefaultAllStreamsToken,
	"portrayal.prompt_template":         DefaultPromptTemplate,

	"permissions.mode": DefaultPermissionMode,

	"scheduler.tasks": map[string]any{
		"sql_maintenance":   map[string]any{"enabled": true, "schedule": "0 0 4 * * 0"},
		"message_retention": map[string]any{"enabled": true, "schedule": "0 30 3 * * *"},
	},

	"messages.help":                DefaultMessages.Help,
	"messages.not_authorized":      DefaultMessages.NotAuthorized,
	"messages.general_error":       DefaultMessages.GeneralError,
	"messages.no_model_config_fmt": DefaultMessages.NoModelConfigFmt,
	"messages.empty_prompt":        DefaultMessages.EmptyPrompt,
	"messages.no_target":           DefaultMessages.NoTarget,
	"messages.stream_denied":       DefaultMessages.StreamDenied,
	"messages.no_records_fmt":      DefaultMessages.NoRecordsFmt,
	"messages.no_valid_content":    DefaultMessages.NoValidContent,
	"messages.progress_fmt":        DefaultMessages.ProgressFmt,
	"messages.rename_usage":        DefaultMessages.RenameUsage,
	"messages.rename_done_fmt":     DefaultMessages.RenameDoneFmt,
	"messages.rename_unknown_user": DefaultMessages.RenameUnknownUser,
	"messages.history_empty":       DefaultMessages.HistoryEmpty,
	"messages.history_header_fmt":  DefaultMessages.HistoryHeaderFmt,
}
