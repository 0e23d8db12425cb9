package llm

import "strings"

// promptTemplate describes the expected reply shape; {question_text} is replaced by the block.
const promptTemplate = "请识别以下完整问题的详细内容，并以 JSON 格式输出，不要包含 ``` 标记。答案中有多个选项的都为多选题\n" +
	"判断题选项应使用 '对、错' 格式，并在答案中使用对应的对、错。\n" +
	"单选题、多选题题选项应使用 'A、B、C...' 格式，并在答案中使用对应的字母。例如：答案应为 'A' 或 'A, B'.....。全都使用大写字母\n" +
	"结构如下：\n" +
	"{'question_type': '', 'content': '', 'answer': '', 'options': [{'text': '', 'is_correct': true/false}]}\n" +
	"完整问题：\n" +
	"{question_text}"

func BuildPrompt(block string) string {
	return strings.Replace(promptTemplate, "{question_text}", block, 1)
}
