package planner

// planningPrompt asks the model for a decomposition plan. The response
// must be a single JSON object; anything around it is stripped before
// decoding.
const planningPrompt = `You are a senior QA architect. Analyze the API documentation below and produce a plan for generating a comprehensive test suite in multiple focused passes.

Instructions:
1. Merge duplicate or overlapping content into a single deduplicated "combined_documentation" string.
2. Estimate how many generation calls are needed. Rule of thumb: documentation describing 30 or more business steps usually needs around 200-250 test cases, which means about 5 generation calls.
3. Define one generation call per focus area (for example: authentication, input validation, core business flows, error handling, edge cases). Each call must name exactly which part of the documentation it covers and estimate how many test cases it should yield.
4. Assess overall complexity.

Respond with a single JSON object and nothing else, using exactly this structure:
{
  "combined_documentation": "<deduplicated documentation>",
  "estimated_calls_needed": <int>,
  "generation_calls": [
    {
      "call_id": <int, starting at 1>,
      "focus_area": "<short name>",
      "description": "<what this call generates>",
      "content_scope": "<which documentation sections it covers>",
      "estimated_test_cases": <int>
    }
  ],
  "total_estimated_test_cases": <int>,
  "complexity_analysis": {
    "total_endpoints": <int>,
    "business_flows": <int>,
    "complexity_level": "<low|medium|high>",
    "reasoning": "<one or two sentences>"
  }
}

API documentation:
%s`
